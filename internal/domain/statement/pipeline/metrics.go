package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	filesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledgerpipe_files_total",
		Help: "Statement files processed, by outcome.",
	}, []string{"outcome"})

	rowsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledgerpipe_rows_total",
		Help: "Statement rows processed, by outcome.",
	}, []string{"outcome"})

	duplicatesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledgerpipe_duplicates_dropped_total",
		Help: "Transactions dropped by identity-key de-duplication.",
	})
)

func (c *Coordinator) countFile(outcome string) {
	if c.metrics {
		filesProcessed.WithLabelValues(outcome).Inc()
	}
}

func (c *Coordinator) countRow(outcome string) {
	if c.metrics {
		rowsProcessed.WithLabelValues(outcome).Inc()
	}
}

func (c *Coordinator) countDuplicate() {
	if c.metrics {
		duplicatesDropped.Inc()
	}
}
