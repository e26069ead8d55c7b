package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "employeevirtual_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"method", "route"},
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "employeevirtual_requests_total",
			Help: "Total HTTP requests processed",
		},
		[]string{"method", "route", "status"},
	)

	ChatMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "employeevirtual_chat_messages_total",
			Help: "Total chat messages stored",
		},
		[]string{"role"},
	)

	LLMTokensUsed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "employeevirtual_llm_tokens_used_total",
			Help: "Total LLM tokens consumed by chat replies",
		},
	)

	FilesUploaded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "employeevirtual_files_uploaded_total",
			Help: "Total files uploaded",
		},
	)

	FlowExecutionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "employeevirtual_flow_executions_total",
			Help: "Total flow executions recorded",
		},
	)

	ExtractionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "employeevirtual_metadata_extractions_total",
			Help: "Total metadata extractions by outcome",
		},
		[]string{"status"},
	)

	StatsCacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "employeevirtual_stats_cache_total",
			Help: "Dashboard stats cache lookups by outcome",
		},
		[]string{"outcome"},
	)
)

func Init() {
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(ChatMessagesTotal)
	prometheus.MustRegister(LLMTokensUsed)
	prometheus.MustRegister(FilesUploaded)
	prometheus.MustRegister(FlowExecutionsTotal)
	prometheus.MustRegister(ExtractionsTotal)
	prometheus.MustRegister(StatsCacheHits)
}

// Middleware records duration and status for every request using the
// route pattern, not the raw path, to keep label cardinality bounded.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		route := c.Route().Path
		method := c.Method()
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}

		RequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()

		return err
	}
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
