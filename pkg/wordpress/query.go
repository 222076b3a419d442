package wordpress

// CategoriesOperation is the operation name of CategoriesQuery.
const CategoriesOperation = "GET_CATEGORIES"

// CategoriesQuery fetches a page of categories with everything the category
// and category archive templates render.
const CategoriesQuery = `
query GET_CATEGORIES($first:Int $after:String) {
  categories(first:$first after:$after) {
    pageInfo {
      hasNextPage
      endCursor
    }
    nodes {
      name
      slug
      posts {
        nodes {
          id
          postId
          title
          slug
          excerpt
          uri
          author {
            name
            avatar(size:50) {
              url
            }
            slug
          }
          date
          categories {
            nodes {
              name
              slug
            }
          }
          tags {
            nodes {
              slug
              name
            }
          }
        }
      }
    }
  }
}
`
