package metrics

import (
	"context"
	"fmt"

	"github.com/kubev2v/transcript-drainer/internal/store/model"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// StatsProvider is implemented by the store.
type StatsProvider interface {
	Statistics(ctx context.Context) (model.QueueStats, error)
}

type queueStatsCollector struct {
	stats         StatsProvider
	total         *prometheus.Desc
	itemsByStatus *prometheus.Desc
}

func newQueueStatsCollector(s StatsProvider) prometheus.Collector {
	fqName := func(name string) string {
		return fmt.Sprintf("%s_queue_%s", transcripts, name)
	}

	return &queueStatsCollector{
		stats: s,
		total: prometheus.NewDesc(
			fqName("items_total"),
			"Total number of work items.",
			nil,
			prometheus.Labels{},
		),
		itemsByStatus: prometheus.NewDesc(
			fqName("items"),
			"Number of work items in each status.",
			[]string{statusLabel},
			prometheus.Labels{},
		),
	}
}

func (c *queueStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.total
	ch <- c.itemsByStatus
}

// Collect implements Collector.
func (c *queueStatsCollector) Collect(ch chan<- prometheus.Metric) {
	stats, err := c.stats.Statistics(context.Background())
	if err != nil {
		zap.S().Named("queue_collector").Errorf("failed to collect queue statistics: %s", err)
		return
	}
	ch <- prometheus.MustNewConstMetric(c.total, prometheus.GaugeValue, float64(stats.Total))

	for status, total := range stats.ByStatus {
		ch <- prometheus.MustNewConstMetric(c.itemsByStatus, prometheus.GaugeValue, float64(total), string(status))
	}
}
