// Package metrics registers the prometheus counters of the SMS service.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics methods are safe to call on a nil receiver.
type Metrics struct {
	actions    *prometheus.CounterVec
	deleted    prometheus.Counter
	sent       *prometheus.CounterVec
	broadcasts *prometheus.CounterVec
	hits       prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	actions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smsdesk_workflow_actions_total",
			Help: "Workflow actions by action and outcome.",
		},
		[]string{"action", "outcome"},
	)
	if err := reg.Register(actions); err != nil {
		return nil, fmt.Errorf("register workflow actions metric: %w", err)
	}

	deleted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "smsdesk_sms_deleted_total",
		Help: "Number of text messages deleted.",
	})
	if err := reg.Register(deleted); err != nil {
		return nil, fmt.Errorf("register deleted metric: %w", err)
	}

	sent := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smsdesk_messages_sent_total",
			Help: "Text messages handed to the gateway, by status.",
		},
		[]string{"status"},
	)
	if err := reg.Register(sent); err != nil {
		return nil, fmt.Errorf("register sent metric: %w", err)
	}

	broadcasts := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smsdesk_broadcast_messages_total",
			Help: "Messages processed by channel broadcasts, by channel and status.",
		},
		[]string{"channel", "status"},
	)
	if err := reg.Register(broadcasts); err != nil {
		return nil, fmt.Errorf("register broadcast metric: %w", err)
	}

	hits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "smsdesk_trackable_hits_total",
		Help: "Clicks recorded on tracked links.",
	})
	if err := reg.Register(hits); err != nil {
		return nil, fmt.Errorf("register trackable hits metric: %w", err)
	}

	return &Metrics{
		actions:    actions,
		deleted:    deleted,
		sent:       sent,
		broadcasts: broadcasts,
		hits:       hits,
	}, nil
}

func (m *Metrics) ObserveAction(action, outcome string) {
	if m == nil {
		return
	}
	m.actions.WithLabelValues(action, outcome).Inc()
}

func (m *Metrics) ObserveDeleted(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.deleted.Add(float64(n))
}

func (m *Metrics) ObserveSend(status string) {
	if m == nil {
		return
	}
	m.sent.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveBroadcast(channel string, sent, failed int) {
	if m == nil {
		return
	}
	m.broadcasts.WithLabelValues(channel, "sent").Add(float64(sent))
	m.broadcasts.WithLabelValues(channel, "failed").Add(float64(failed))
}

func (m *Metrics) ObserveHit() {
	if m == nil {
		return
	}
	m.hits.Inc()
}
