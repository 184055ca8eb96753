package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	apiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_client_api_requests_total",
			Help: "Total number of REST calls made by the chat client.",
		},
		[]string{"method", "route", "status"},
	)
	apiRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chat_client_api_request_duration_seconds",
			Help:    "REST call latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	channelsOpen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_client_channels_open",
			Help: "Number of open live channels.",
		},
	)
	channelEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_client_channel_events_total",
			Help: "Total number of live channel events.",
		},
		[]string{"event"},
	)
	eventPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_client_event_publish_errors_total",
			Help: "Total number of event publish errors.",
		},
	)
	diagRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_client_diagnostics_requests_total",
			Help: "Total number of requests served by the diagnostics listener.",
		},
		[]string{"method", "route", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		apiRequestsTotal,
		apiRequestDuration,
		channelsOpen,
		channelEventsTotal,
		eventPublishErrorsTotal,
		diagRequestsTotal,
	)
}

// ObserveAPICall records one REST call. status is 0 when no response arrived.
func ObserveAPICall(method, route string, status int, elapsed time.Duration) {
	label := strconv.Itoa(status)
	if status == 0 {
		label = "error"
	}
	apiRequestsTotal.WithLabelValues(method, route, label).Inc()
	apiRequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

func IncChannelsOpen() {
	channelsOpen.Inc()
}

func DecChannelsOpen() {
	channelsOpen.Dec()
}

func IncChannelEvent(event string) {
	channelEventsTotal.WithLabelValues(event).Inc()
}

func IncEventPublishError() {
	eventPublishErrorsTotal.Inc()
}

// HTTPMetricsMiddleware counts requests served by the diagnostics router.
func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		diagRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
