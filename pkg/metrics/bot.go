package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// BotMetrics records conversation and order activity.
type BotMetrics struct {
	messagesIn  *prometheus.CounterVec
	messagesOut prometheus.Counter
	duration    *prometheus.HistogramVec
	orders      *prometheus.CounterVec
	waitlist    prometheus.Counter
}

// NewBotMetrics registers the bot metrics on the provided registerer.
func NewBotMetrics(reg prometheus.Registerer) *BotMetrics {
	if reg == nil {
		return &BotMetrics{}
	}
	messagesIn := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_messages_in_total",
		Help: "Inbound WhatsApp events handled, by sender role.",
	}, []string{"role"})
	messagesOut := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bot_messages_out_total",
		Help: "Outbound messages sent through the gateway.",
	})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bot_handle_duration_seconds",
		Help:    "Duration of inbound event handling in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})
	orders := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_orders_total",
		Help: "Orders by terminal outcome.",
	}, []string{"status"})
	waitlist := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bot_waitlist_notifications_total",
		Help: "Restock notifications delivered.",
	})
	reg.MustRegister(messagesIn, messagesOut, duration, orders, waitlist)
	return &BotMetrics{
		messagesIn:  messagesIn,
		messagesOut: messagesOut,
		duration:    duration,
		orders:      orders,
		waitlist:    waitlist,
	}
}

// IncMessageIn counts one handled inbound event for the given role.
func (b *BotMetrics) IncMessageIn(role string) {
	if b == nil || b.messagesIn == nil {
		return
	}
	b.messagesIn.WithLabelValues(normalizeLabel(role)).Inc()
}

// IncMessageOut counts one outbound gateway send.
func (b *BotMetrics) IncMessageOut() {
	if b == nil || b.messagesOut == nil {
		return
	}
	b.messagesOut.Inc()
}

// ObserveHandle records how long one inbound event took, labelled with the
// stage the sender was in when it arrived.
func (b *BotMetrics) ObserveHandle(stage string, d time.Duration) {
	if b == nil || b.duration == nil {
		return
	}
	b.duration.WithLabelValues(normalizeLabel(stage)).Observe(d.Seconds())
}

// IncOrder counts one order reaching the given status.
func (b *BotMetrics) IncOrder(status string) {
	if b == nil || b.orders == nil {
		return
	}
	b.orders.WithLabelValues(normalizeLabel(status)).Inc()
}

// IncWaitlistNotified counts one delivered restock notification.
func (b *BotMetrics) IncWaitlistNotified() {
	if b == nil || b.waitlist == nil {
		return
	}
	b.waitlist.Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
