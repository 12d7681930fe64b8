// Package metrics exposes prometheus collectors for the auth flows and the
// HTTP layer.
package metrics

import (
	"fmt"

	"github.com/daromanx/qa-tracker/auth"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "qa_tracker"

// AuthMetrics implements auth.Recorder.
type AuthMetrics struct {
	Attempts      *prometheus.CounterVec
	Lockouts      *prometheus.CounterVec
	TokensIssued  *prometheus.CounterVec
	Notifications *prometheus.CounterVec
}

func NewAuthMetrics(reg prometheus.Registerer) (*AuthMetrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &AuthMetrics{
		Attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "attempts_total",
			Help:      "Auth operations partitioned by stage and outcome.",
		}, []string{"stage", "outcome"}),
		Lockouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "lockouts_total",
			Help:      "Locks applied partitioned by track (password, mfa).",
		}, []string{"track"}),
		TokensIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "tokens_issued_total",
			Help:      "Activation and reset tokens created.",
		}, []string{"kind"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "notifications_failed_total",
			Help:      "Emails that could not be delivered, by kind.",
		}, []string{"kind"}),
	}

	var err error
	if m.Attempts, err = registerCounterVec(reg, m.Attempts); err != nil {
		return nil, err
	}
	if m.Lockouts, err = registerCounterVec(reg, m.Lockouts); err != nil {
		return nil, err
	}
	if m.TokensIssued, err = registerCounterVec(reg, m.TokensIssued); err != nil {
		return nil, err
	}
	if m.Notifications, err = registerCounterVec(reg, m.Notifications); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *AuthMetrics) Attempt(stage string, outcome auth.Outcome) {
	m.Attempts.WithLabelValues(stage, string(outcome)).Inc()
}

func (m *AuthMetrics) Lockout(track string) {
	m.Lockouts.WithLabelValues(track).Inc()
}

func (m *AuthMetrics) TokenIssued(kind string) {
	m.TokensIssued.WithLabelValues(kind).Inc()
}

func (m *AuthMetrics) NotificationFailed(kind string) {
	m.Notifications.WithLabelValues(kind).Inc()
}

// registerCounterVec reuses an already registered collector so tests and
// restarts within one process do not fail.
func registerCounterVec(reg prometheus.Registerer, c *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(c); err != nil {
		already, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return nil, fmt.Errorf("register collector: %w", err)
		}
		existing, ok := already.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil, fmt.Errorf("existing collector has unexpected type %T", already.ExistingCollector)
		}
		return existing, nil
	}
	return c, nil
}

var _ auth.Recorder = (*AuthMetrics)(nil)
