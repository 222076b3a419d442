package pagination

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"
)

// sliceFetcher pages over a fixed slice using the offset as the cursor.
type sliceFetcher struct {
	items []int
	calls []string
	fail  map[int]error
}

func (f *sliceFetcher) FetchPage(ctx context.Context, first int, after string) (Page[int], error) {
	f.calls = append(f.calls, after)
	if err := f.fail[len(f.calls)-1]; err != nil {
		return Page[int]{}, err
	}

	offset := 0
	if after != "" {
		n, err := strconv.Atoi(after)
		if err != nil {
			return Page[int]{}, err
		}
		offset = n
	}
	end := offset + first
	if end > len(f.items) {
		end = len(f.items)
	}
	return Page[int]{
		Nodes: f.items[offset:end],
		PageInfo: PageInfo{
			HasNextPage: end < len(f.items),
			EndCursor:   strconv.Itoa(end),
		},
	}, nil
}

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.PageSize != 10 {
		t.Errorf("PageSize = %d, want 10", cfg.PageSize)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.Timeout)
	}
}

func TestWalk(t *testing.T) {
	tests := []struct {
		name      string
		items     int
		pageSize  int
		wantPages int
	}{
		{"empty connection", 0, 10, 1},
		{"single partial page", 3, 10, 1},
		{"exactly one page", 10, 10, 1},
		{"two pages", 15, 10, 2},
		{"three full pages", 30, 10, 3},
		{"page size one", 4, 1, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &sliceFetcher{items: seq(tt.items)}

			var visited []int
			got, err := Walk[int](context.Background(), f, Config{PageSize: tt.pageSize}, func(n int, p Page[int]) error {
				visited = append(visited, n)
				return nil
			})
			if err != nil {
				t.Fatalf("Walk() error = %v", err)
			}

			if len(got) != tt.items {
				t.Errorf("got %d nodes, want %d", len(got), tt.items)
			}
			for i, v := range got {
				if v != i {
					t.Fatalf("node %d = %d, nodes out of order", i, v)
				}
			}
			if len(visited) != tt.wantPages {
				t.Errorf("visited %d pages, want %d", len(visited), tt.wantPages)
			}
			for i, n := range visited {
				if n != i {
					t.Errorf("page number %d = %d", i, n)
				}
			}
			if f.calls[0] != "" {
				t.Errorf("first request cursor = %q, want empty", f.calls[0])
			}
		})
	}
}

func TestWalk_PassesCursorAndAfter(t *testing.T) {
	f := &sliceFetcher{items: seq(25)}

	var afters []string
	_, err := Walk[int](context.Background(), f, Config{PageSize: 10}, func(n int, p Page[int]) error {
		afters = append(afters, p.After)
		return nil
	})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}

	want := []string{"", "10", "20"}
	if fmt.Sprint(f.calls) != fmt.Sprint(want) {
		t.Errorf("request cursors = %v, want %v", f.calls, want)
	}
	if fmt.Sprint(afters) != fmt.Sprint(want) {
		t.Errorf("page.After values = %v, want %v", afters, want)
	}
}

func TestWalk_DefaultsPageSize(t *testing.T) {
	var gotFirst int
	f := FetcherFunc[int](func(ctx context.Context, first int, after string) (Page[int], error) {
		gotFirst = first
		return Page[int]{}, nil
	})

	if _, err := Walk[int](context.Background(), f, Config{}, nil); err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	if gotFirst != 10 {
		t.Errorf("first = %d, want 10", gotFirst)
	}
}

func TestWalk_FetchErrorStopsWalk(t *testing.T) {
	boom := errors.New("network down")
	f := &sliceFetcher{items: seq(30), fail: map[int]error{1: boom}}

	got, err := Walk[int](context.Background(), f, Config{PageSize: 10, Name: "categories"}, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("Walk() error = %v, want %v", err, boom)
	}
	if len(got) != 10 {
		t.Errorf("got %d accumulated nodes before failure, want 10", len(got))
	}
	if len(f.calls) != 2 {
		t.Errorf("made %d calls, want 2", len(f.calls))
	}
}

func TestWalk_VisitErrorStopsWalk(t *testing.T) {
	f := &sliceFetcher{items: seq(30)}
	stop := errors.New("stop")

	_, err := Walk[int](context.Background(), f, Config{PageSize: 10}, func(n int, p Page[int]) error {
		if n == 1 {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) {
		t.Fatalf("Walk() error = %v, want %v", err, stop)
	}
	if len(f.calls) != 2 {
		t.Errorf("made %d calls, want 2", len(f.calls))
	}
}

func TestWalk_StalledCursor(t *testing.T) {
	tests := []struct {
		name   string
		cursor func(after string) string
	}{
		{"empty end cursor", func(string) string { return "" }},
		{"repeated cursor", func(after string) string {
			if after == "" {
				return "c1"
			}
			return after
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			f := FetcherFunc[int](func(ctx context.Context, first int, after string) (Page[int], error) {
				calls++
				return Page[int]{
					Nodes:    []int{calls},
					PageInfo: PageInfo{HasNextPage: true, EndCursor: tt.cursor(after)},
				}, nil
			})

			_, err := Walk[int](context.Background(), f, Config{PageSize: 1}, nil)
			if !errors.Is(err, ErrStalledCursor) {
				t.Fatalf("Walk() error = %v, want ErrStalledCursor", err)
			}
			if calls > 2 {
				t.Errorf("walker kept fetching after a stalled cursor (%d calls)", calls)
			}
		})
	}
}

func TestWalk_MaxPages(t *testing.T) {
	f := &sliceFetcher{items: seq(100)}

	got, err := Walk[int](context.Background(), f, Config{PageSize: 10, MaxPages: 3}, nil)
	if !errors.Is(err, ErrTooManyPages) {
		t.Fatalf("Walk() error = %v, want ErrTooManyPages", err)
	}
	if len(got) != 30 {
		t.Errorf("got %d nodes, want 30", len(got))
	}
}

func TestWalk_MaxPagesNotHitWhenExact(t *testing.T) {
	f := &sliceFetcher{items: seq(30)}

	if _, err := Walk[int](context.Background(), f, Config{PageSize: 10, MaxPages: 3}, nil); err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
}

func TestWalk_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	f := FetcherFunc[int](func(ctx context.Context, first int, after string) (Page[int], error) {
		calls++
		cancel()
		return Page[int]{Nodes: []int{calls}, PageInfo: PageInfo{HasNextPage: true, EndCursor: strconv.Itoa(calls)}}, nil
	})

	_, err := Walk[int](ctx, f, Config{PageSize: 1}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Walk() error = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("made %d calls after cancellation, want 1", calls)
	}
}

func TestWalk_PerPageTimeout(t *testing.T) {
	f := FetcherFunc[int](func(ctx context.Context, first int, after string) (Page[int], error) {
		<-ctx.Done()
		return Page[int]{}, ctx.Err()
	})

	start := time.Now()
	_, err := Walk[int](context.Background(), f, Config{Timeout: 20 * time.Millisecond}, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Walk() error = %v, want deadline exceeded", err)
	}
	if time.Since(start) > time.Second {
		t.Error("per-page timeout not applied")
	}
}
