package metricspush

import (
	"context"
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

// countedTables are reported through pathway_rows_total, one series per
// table label.
var countedTables = []string{
	"organizations",
	"courses",
	"payments_configs",
	"trails",
	"trail_runs",
	"trail_steps",
	"collections",
}

// Gauges holds the row-count and process gauges pushed to the remote
// backend. They live on a dedicated registry so /metrics stays unchanged.
type Gauges struct {
	registry    *prometheus.Registry
	rows        *prometheus.GaugeVec
	memoryBytes prometheus.Gauge
}

func NewGauges(registry *prometheus.Registry) *Gauges {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	g := &Gauges{
		registry: registry,
		rows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pathway_rows_total",
			Help: "Number of stored rows per table.",
		}, []string{"table"}),
		memoryBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pathway_memory_sys_bytes",
			Help: "Bytes of memory obtained from the OS.",
		}),
	}
	registry.MustRegister(g.rows, g.memoryBytes)
	return g
}

func (g *Gauges) Registry() *prometheus.Registry {
	return g.registry
}

// Refresh recounts every table. A failed count leaves the previous value.
func (g *Gauges) Refresh(ctx context.Context, db *gorm.DB) error {
	var firstErr error
	if db != nil {
		for _, table := range countedTables {
			var count int64
			if err := db.WithContext(ctx).Table(table).Count(&count).Error; err != nil {
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			g.rows.WithLabelValues(table).Set(float64(count))
		}
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	g.memoryBytes.Set(float64(m.Sys))

	return firstErr
}
