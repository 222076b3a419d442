package site

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pagesWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wpgql_pages_written_total",
			Help: "Pages written to the output directory by template",
		},
		[]string{"template"},
	)

	bytesWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wpgql_page_bytes_written_total",
			Help: "Bytes of HTML written to the output directory",
		},
	)

	writeErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wpgql_page_write_errors_total",
			Help: "Pages that failed to render or write by template",
		},
		[]string{"template"},
	)
)
