package services

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// LockupMetrics counts protocol outcomes
type LockupMetrics struct {
	operations *prometheus.CounterVec
	checkouts  *prometheus.CounterVec
}

// NewLockupMetrics registers the lockup counters on reg. A nil reg creates unregistered counters.
func NewLockupMetrics(reg prometheus.Registerer) *LockupMetrics {
	factory := promauto.With(reg)
	return &LockupMetrics{
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lockup_operations_total",
			Help: "lockup protocol calls by operation and result",
		}, []string{"operation", "result"}),
		checkouts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lockup_execute_checkouts_total",
			Help: "checkouts attempted by execute lockup, by kind (member, visitor, performer) and result",
		}, []string{"kind", "result"}),
	}
}

func (m *LockupMetrics) observeOperation(operation string, err error) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, resultLabel(err)).Inc()
}

func (m *LockupMetrics) observeCheckout(kind string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "failed"
	}
	m.checkouts.WithLabelValues(kind, result).Inc()
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, ErrNotEligible):
		return "not_eligible"
	case errors.Is(err, ErrNotPresent):
		return "not_present"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	default:
		return "error"
	}
}
