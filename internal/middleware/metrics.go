package middleware

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RedisErrors counts cache-layer Redis command failures by command name.
var RedisErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "inkwell",
		Subsystem: "cache",
		Name:      "redis_errors_total",
		Help:      "Redis command errors observed by the response cache.",
	},
	[]string{"command"},
)

// UpstreamErrors counts failed calls to the remote Inkwell API by operation.
var UpstreamErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "inkwell",
		Subsystem: "api",
		Name:      "upstream_errors_total",
		Help:      "Failed requests to the remote Inkwell REST API.",
	},
	[]string{"operation"},
)

// InitMetrics creates the Prometheus HTTP middleware for the given service name.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	return fiberprometheus.NewWith(serviceName, "inkwell", "http")
}

// MetricsMiddleware adapts the Prometheus middleware to a fiber.Handler.
func MetricsMiddleware(p *fiberprometheus.FiberPrometheus) fiber.Handler {
	return p.Middleware
}
