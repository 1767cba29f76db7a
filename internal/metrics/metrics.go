package metrics

import (
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/metrics"
	"github.com/ethereum/go-ethereum/metrics/prometheus"

	"github.com/alphabill-org/assetswap/internal/logger"
)

var log = logger.CreateForPackage()

var (
	mutex    sync.Mutex
	registry metrics.Registry
)

type Counter struct {
	metrics.Counter
}

// Enable turns on metrics collection. Counters registered before Enable was called stay disabled.
func Enable() {
	mutex.Lock()
	defer mutex.Unlock()
	enable()
}

func Enabled() bool {
	return metrics.Enabled
}

func GetOrRegisterCounter(name string) *Counter {
	mutex.Lock()
	defer mutex.Unlock()
	initMetrics()
	log.Trace("Creating new counter with name %v", name)
	return &Counter{metrics.GetOrRegisterCounter(name, registry)}
}

func PrometheusHandler() http.Handler {
	mutex.Lock()
	defer mutex.Unlock()
	if registry == nil {
		return prometheus.Handler(metrics.DefaultRegistry)
	}
	return prometheus.Handler(registry)
}

func initMetrics() {
	if registry != nil {
		return
	}
	if !isMetricsEnabled() {
		return
	}
	enable()
}

func enable() {
	if registry != nil {
		return
	}
	log.Debug("Initialising metrics")
	metrics.Enabled = true
	registry = metrics.NewRegistry()
	metrics.DefaultRegistry = registry
}

func isMetricsEnabled() bool {
	// counters are created when the node is constructed, which may happen before the flags are parsed
	for _, arg := range os.Args {
		flag := strings.TrimLeft(arg, "-")
		if flag == "metrics" {
			return true
		}
	}
	return false
}
