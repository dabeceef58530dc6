package msc

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains the container-level metrics. Attach an instance to a
// container with WithMetrics and expose it by registering it with a
// prometheus.Registerer.
type Metrics struct {
	ServicesInstalled prometheus.Counter
	ServicesRemoved   prometheus.Counter
	ServiceStatus     *prometheus.GaugeVec
	StartsTotal       *prometheus.CounterVec
	StartDuration     *prometheus.HistogramVec
}

// NewMetrics creates a Metrics instance with all container metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		ServicesInstalled: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "msc",
				Subsystem: "container",
				Name:      "services_installed_total",
				Help:      "Total number of service definitions installed",
			},
		),

		ServicesRemoved: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "msc",
				Subsystem: "container",
				Name:      "services_removed_total",
				Help:      "Total number of services removed",
			},
		),

		ServiceStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "msc",
				Subsystem: "service",
				Name:      "status",
				Help:      "Service status (0=down, 1=starting, 2=up)",
			},
			[]string{"service"},
		),

		StartsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "msc",
				Subsystem: "service",
				Name:      "starts_total",
				Help:      "Total number of service start attempts",
			},
			[]string{"service", "status"},
		),

		StartDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "msc",
				Subsystem: "service",
				Name:      "start_duration_seconds",
				Help:      "Time spent resolving, injecting, and starting a service",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"service"},
		),
	}
}

// Register registers all metrics with the given registerer.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.ServicesInstalled,
		m.ServicesRemoved,
		m.ServiceStatus,
		m.StartsTotal,
		m.StartDuration,
	}
	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) recordInstalled(count int) {
	m.ServicesInstalled.Add(float64(count))
}

func (m *Metrics) recordStart(name ServiceName, elapsed time.Duration, failure error) {
	label := name.String()
	if failure != nil {
		m.StartsTotal.WithLabelValues(label, "failure").Inc()
		m.ServiceStatus.WithLabelValues(label).Set(0)
		return
	}
	m.StartsTotal.WithLabelValues(label, "success").Inc()
	m.StartDuration.WithLabelValues(label).Observe(elapsed.Seconds())
	m.ServiceStatus.WithLabelValues(label).Set(2)
}

func (m *Metrics) recordStop(name ServiceName) {
	m.ServiceStatus.WithLabelValues(name.String()).Set(0)
}

func (m *Metrics) recordRemoved(name ServiceName) {
	m.ServicesRemoved.Inc()
	m.ServiceStatus.DeleteLabelValues(name.String())
}
