package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devicectl/internal/domain"
)

type fakeCounter struct {
	counts map[domain.DeviceType]int
	err    error
}

func (f fakeCounter) CountByType(ctx context.Context) (map[domain.DeviceType]int, error) {
	return f.counts, f.err
}

func TestDeviceCollector(t *testing.T) {
	c := &deviceCollector{
		store: fakeCounter{counts: map[domain.DeviceType]int{
			domain.DeviceTypeSwitch:      2,
			domain.DeviceTypeAccessPoint: 1,
		}},
		devicesDesc: prometheus.NewDesc("devicectl_devices", "Number of devices.", []string{"type"}, nil),
	}

	expected := `
# HELP devicectl_devices Number of devices.
# TYPE devicectl_devices gauge
devicectl_devices{type="Access Point"} 1
devicectl_devices{type="Switch"} 2
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected)))
}

func TestDeviceCollectorError(t *testing.T) {
	c := &deviceCollector{
		store:       fakeCounter{err: errors.New("database is locked")},
		devicesDesc: prometheus.NewDesc("devicectl_devices", "Number of devices.", []string{"type"}, nil),
	}
	assert.Error(t, testutil.CollectAndCompare(c, strings.NewReader("")))
}

func TestRegisterWith(t *testing.T) {
	reg := prometheus.NewRegistry()
	RegisterWith(reg, fakeCounter{counts: map[domain.DeviceType]int{}}, false)

	// a second registration of the same collectors must fail
	assert.Panics(t, func() {
		RegisterWith(reg, fakeCounter{}, false)
	})
}

func TestRegisterWithRuntimeCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	assert.NotPanics(t, func() {
		RegisterWith(reg, fakeCounter{counts: map[domain.DeviceType]int{}}, true)
	})

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "go_goroutines")
}

func TestRegisterOnDefaultRegistry(t *testing.T) {
	// the default registry ships with the runtime collectors already
	assert.NotPanics(t, func() {
		Register(fakeCounter{counts: map[domain.DeviceType]int{}})
	})
}

func TestScanAndCommandCounters(t *testing.T) {
	before := testutil.ToFloat64(scansTotal.WithLabelValues("success"))
	discoveredBefore := testutil.ToFloat64(devicesDiscovered)

	ScanCompleted(3*time.Second, 5, 2)

	assert.Equal(t, before+1, testutil.ToFloat64(scansTotal.WithLabelValues("success")))
	assert.Equal(t, discoveredBefore+2, testutil.ToFloat64(devicesDiscovered))
	assert.Equal(t, float64(5), testutil.ToFloat64(hostsAlive))

	failBefore := testutil.ToFloat64(remoteCommandsTotal.WithLabelValues("restart", "failure"))
	RemoteCommand("restart", errors.New("dial tcp: refused"))
	assert.Equal(t, failBefore+1, testutil.ToFloat64(remoteCommandsTotal.WithLabelValues("restart", "failure")))
}

func TestMiddlewareRecordsStatus(t *testing.T) {
	h := Middleware("/api/devices/{id}", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/devices/{id}", "404"))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/devices/abc", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/devices/{id}", "404")))
	assert.Equal(t, float64(0), testutil.ToFloat64(httpRequestsInFlight))
}
