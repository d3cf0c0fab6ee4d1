// Package metrics defines the Prometheus collectors of the blog.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry             *prometheus.Registry
	likesToggled         *prometheus.CounterVec
	commentsCreated      *prometheus.CounterVec
	notificationsCreated *prometheus.CounterVec
	httpRequests         *prometheus.CounterVec
}

// New registers the collectors on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		likesToggled: f.NewCounterVec(prometheus.CounterOpts{
			Name: "blog_likes_toggled_total",
			Help: "Like toggles by target kind and resulting state.",
		}, []string{"target", "result"}),
		commentsCreated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "blog_comments_created_total",
			Help: "Comments created, split into top-level comments and replies.",
		}, []string{"kind"}),
		notificationsCreated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "blog_notifications_created_total",
			Help: "Notifications created by verb.",
		}, []string{"verb"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "blog_http_requests_total",
			Help: "HTTP requests by method and status code.",
		}, []string{"method", "code"}),
	}
}

func (m *Metrics) LikeToggled(target string, liked bool) {
	if m == nil {
		return
	}
	result := "unliked"
	if liked {
		result = "liked"
	}
	m.likesToggled.WithLabelValues(target, result).Inc()
}

func (m *Metrics) CommentCreated(reply bool) {
	if m == nil {
		return
	}
	kind := "comment"
	if reply {
		kind = "reply"
	}
	m.commentsCreated.WithLabelValues(kind).Inc()
}

// NotificationCreated counts by verb kind ("reply" or "like"), not the full
// verb text, to keep label cardinality bounded
func (m *Metrics) NotificationCreated(kind string) {
	if m == nil {
		return
	}
	m.notificationsCreated.WithLabelValues(kind).Inc()
}

func (m *Metrics) Request(method string, status int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
