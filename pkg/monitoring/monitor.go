package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// RTE 协议调用计数，按协议方法和返回的错误码打标签
	RTECallCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scorm_rte_calls_total",
			Help: "Total number of SCORM RTE API calls",
		},
		[]string{"method", "error"},
	)

	// 进度同步结果计数
	ProgressSyncCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scorm_progress_syncs_total",
			Help: "Total number of progress synchronizations",
		},
		[]string{"result"},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(RTECallCounter)
	prometheus.MustRegister(ProgressSyncCounter)
}

// ObserveRTECall RTE 协议调用埋点
func ObserveRTECall(method, errorCode string) {
	RTECallCounter.WithLabelValues(method, errorCode).Inc()
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
