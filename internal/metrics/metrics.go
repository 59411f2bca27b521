// Package metrics holds the Prometheus counters for domain events.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is safe to use as a nil pointer; every recorder is then a no-op.
type Metrics struct {
	FriendshipEvents *prometheus.CounterVec
	BlockEvents      *prometheus.CounterVec
	Notifications    *prometheus.CounterVec
	ChatMessages     prometheus.Counter
	PostsHidden      prometheus.Counter
	Requests         *prometheus.CounterVec
}

// New creates the counters and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FriendshipEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "socialgraph_friendship_events_total",
				Help: "Friendship lifecycle events by action",
			},
			[]string{"action"},
		),
		BlockEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "socialgraph_block_events_total",
				Help: "Block and unblock operations",
			},
			[]string{"action"},
		),
		Notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "socialgraph_notifications_total",
				Help: "Notification fan-out outcomes by type",
			},
			[]string{"type", "outcome"},
		),
		ChatMessages: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "socialgraph_chat_messages_total",
				Help: "Chat messages sent",
			},
		),
		PostsHidden: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "socialgraph_posts_hidden_total",
				Help: "Posts hidden after crossing the report threshold",
			},
		),
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "socialgraph_http_requests_total",
				Help: "HTTP requests by status class",
			},
			[]string{"method", "class"},
		),
	}

	reg.MustRegister(
		m.FriendshipEvents,
		m.BlockEvents,
		m.Notifications,
		m.ChatMessages,
		m.PostsHidden,
		m.Requests,
	)
	return m
}

func (m *Metrics) Friendship(action string) {
	if m == nil {
		return
	}
	m.FriendshipEvents.WithLabelValues(action).Inc()
}

func (m *Metrics) Block(action string) {
	if m == nil {
		return
	}
	m.BlockEvents.WithLabelValues(action).Inc()
}

func (m *Metrics) NotificationCreated(notificationType string) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(notificationType, "created").Inc()
}

func (m *Metrics) NotificationSuppressed(notificationType string) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(notificationType, "suppressed").Inc()
}

func (m *Metrics) ChatMessage() {
	if m == nil {
		return
	}
	m.ChatMessages.Inc()
}

func (m *Metrics) PostHidden() {
	if m == nil {
		return
	}
	m.PostsHidden.Inc()
}

// Request records one finished HTTP request by its status class ("2xx", ...).
func (m *Metrics) Request(method string, status int) {
	if m == nil {
		return
	}
	class := "5xx"
	switch {
	case status < 300:
		class = "2xx"
	case status < 400:
		class = "3xx"
	case status < 500:
		class = "4xx"
	}
	m.Requests.WithLabelValues(method, class).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
