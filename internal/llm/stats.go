package llm

import (
	"context"
	"sync/atomic"
)

// CallStats counts backend calls and repair passes made on behalf of one
// request. Attach it with WithStats; all methods are safe on a nil receiver.
type CallStats struct {
	calls   atomic.Int64
	repairs atomic.Int64
}

type statsKey struct{}

// WithStats returns a child context carrying a fresh CallStats
func WithStats(ctx context.Context) (context.Context, *CallStats) {
	stats := &CallStats{}
	return context.WithValue(ctx, statsKey{}, stats), stats
}

// StatsFromContext returns the CallStats attached to ctx, or nil
func StatsFromContext(ctx context.Context) *CallStats {
	stats, _ := ctx.Value(statsKey{}).(*CallStats)
	return stats
}

func (s *CallStats) addCall() {
	if s != nil {
		s.calls.Add(1)
	}
}

func (s *CallStats) addRepair() {
	if s != nil {
		s.repairs.Add(1)
	}
}

// Calls returns the number of backend calls issued
func (s *CallStats) Calls() int {
	if s == nil {
		return 0
	}
	return int(s.calls.Load())
}

// Repairs returns the number of repair passes issued
func (s *CallStats) Repairs() int {
	if s == nil {
		return 0
	}
	return int(s.repairs.Load())
}
