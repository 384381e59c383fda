package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ReportsSubmitted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "jamkos", Name: "reports_submitted_total", Help: "Reports submitted via QR scan",
	})
	ReportsTriaged = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "jamkos", Name: "reports_triaged_total", Help: "Triage actions by resulting status",
	}, []string{"status"})
	InvalidScans = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "jamkos", Name: "invalid_scans_total", Help: "QR scans with unknown token",
	})
	AlertFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "jamkos", Name: "alert_failures_total", Help: "New-report alerts that failed to deliver",
	})
	HandlerErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "jamkos", Name: "handler_errors_total", Help: "Handler errors",
	})
	LiveSubscribers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "jamkos", Name: "live_subscribers", Help: "Active live dashboard subscriptions",
	})
	Recompute = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "jamkos", Name: "snapshot_recompute_seconds", Help: "Full aggregate recomputation latency",
		Buckets: prometheus.DefBuckets,
	})
	DBPing = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "jamkos", Name: "db_ping_seconds", Help: "DB ping latency",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(ReportsSubmitted, ReportsTriaged, InvalidScans, AlertFailures,
		HandlerErrors, LiveSubscribers, Recompute, DBPing)
}

func Handler() http.Handler { return promhttp.Handler() }

func ObserveDBPing(d time.Duration) { DBPing.Observe(d.Seconds()) }

func ObserveRecompute(d time.Duration) { Recompute.Observe(d.Seconds()) }
