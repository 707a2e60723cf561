// Package metrics registers the Prometheus collectors exposed on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pagebot_http_request_duration_seconds",
		Help:    "Duration of HTTP requests by route pattern.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	routedMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pagebot_routed_messages_total",
		Help: "Inbound messages routed, by outcome.",
	}, []string{"outcome"})

	outboundSends = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pagebot_outbound_sends_total",
		Help: "Replies forwarded to the Graph API, by result.",
	}, []string{"result"})

	aiCalls = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pagebot_ai_call_duration_seconds",
		Help:    "Latency of AI provider calls.",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30},
	}, []string{"provider", "result"})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request duration keyed by chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		httpRequestDuration.WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).Observe(time.Since(start).Seconds())
	})
}

// ObserveRouted counts one routed message.
func ObserveRouted(outcome string) {
	routedMessages.WithLabelValues(outcome).Inc()
}

// ObserveSend counts one outbound send attempt.
func ObserveSend(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	outboundSends.WithLabelValues(result).Inc()
}

// ObserveAICall records the latency of one provider call.
func ObserveAICall(provider string, started time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	aiCalls.WithLabelValues(provider, result).Observe(time.Since(started).Seconds())
}
