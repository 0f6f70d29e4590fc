// Package metrics exposes Prometheus metrics for scans, remote commands,
// HTTP traffic and the device inventory.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"devicectl/internal/domain"
)

const namespace = "devicectl"

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by method, route, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds by method and route.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "http_requests_in_flight",
		Help:      "Current number of HTTP requests being processed.",
	})

	scansTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scans_total",
			Help:      "Network scans by outcome.",
		},
		[]string{"result"},
	)

	scanDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "scan_duration_seconds",
		Help:      "Wall time of completed network scans.",
		Buckets:   []float64{1, 2, 5, 10, 30, 60, 120, 300},
	})

	hostsAlive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "scan_hosts_alive",
		Help:      "Hosts that answered the most recent scan.",
	})

	devicesDiscovered = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "devices_discovered_total",
		Help:      "Devices created by network scans.",
	})

	remoteCommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_commands_total",
			Help:      "Remote SSH commands by kind and outcome.",
		},
		[]string{"command", "result"},
	)
)

// DeviceCounter is the subset of the store needed to collect inventory metrics
type DeviceCounter interface {
	CountByType(ctx context.Context) (map[domain.DeviceType]int, error)
}

// deviceCollector queries the store on each scrape
type deviceCollector struct {
	store       DeviceCounter
	devicesDesc *prometheus.Desc
}

func (c *deviceCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.devicesDesc
}

func (c *deviceCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	counts, err := c.store.CountByType(ctx)
	if err != nil {
		ch <- prometheus.NewInvalidMetric(c.devicesDesc, err)
		return
	}
	for t, n := range counts {
		ch <- prometheus.MustNewConstMetric(c.devicesDesc, prometheus.GaugeValue, float64(n), string(t))
	}
}

// Register registers all metrics with the default Prometheus registry.
// Call once at startup after the store is open. The default registry
// already carries the Go and process collectors.
func Register(store DeviceCounter) {
	RegisterWith(prometheus.DefaultRegisterer, store, false)
}

// RegisterWith registers on reg; runtime adds the Go and process collectors
func RegisterWith(reg prometheus.Registerer, store DeviceCounter, runtime bool) {
	if runtime {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	reg.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		httpRequestsInFlight,

		scansTotal,
		scanDuration,
		hostsAlive,
		devicesDiscovered,
		remoteCommandsTotal,

		&deviceCollector{
			store: store,
			devicesDesc: prometheus.NewDesc(
				namespace+"_devices",
				"Number of devices in the inventory, partitioned by type.",
				[]string{"type"},
				nil,
			),
		},
	)
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint
func Handler() http.Handler {
	return promhttp.Handler()
}

// ScanCompleted records a finished scan
func ScanCompleted(elapsed time.Duration, alive, created int) {
	scansTotal.WithLabelValues("success").Inc()
	scanDuration.Observe(elapsed.Seconds())
	hostsAlive.Set(float64(alive))
	devicesDiscovered.Add(float64(created))
}

// ScanFailed records a scan that ended in error; reason is a bounded label
func ScanFailed(reason string) {
	scansTotal.WithLabelValues(reason).Inc()
}

// RemoteCommand records one remote control attempt
func RemoteCommand(command string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	remoteCommandsTotal.WithLabelValues(command, result).Inc()
}

// responseWriter wraps http.ResponseWriter to capture the response status code
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware wraps an http.Handler to record HTTP metrics. pattern should be
// the route pattern so the path label has bounded cardinality.
func Middleware(pattern string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		httpRequestsInFlight.Inc()

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			httpRequestsInFlight.Dec()
			status := strconv.Itoa(rw.status)
			httpRequestsTotal.WithLabelValues(r.Method, pattern, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, pattern).Observe(time.Since(start).Seconds())
		}()

		next.ServeHTTP(rw, r)
	})
}
