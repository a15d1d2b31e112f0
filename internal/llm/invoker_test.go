package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedCompleter returns the queued results in order, then repeats the last one.
type scriptedCompleter struct {
	mu      sync.Mutex
	results []result
	calls   int
	seen    [][]Message
}

type result struct {
	text string
	err  error
}

func (s *scriptedCompleter) Complete(_ context.Context, messages []Message, _ Options) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = append(s.seen, append([]Message(nil), messages...))
	idx := s.calls
	if idx >= len(s.results) {
		idx = len(s.results) - 1
	}
	s.calls++
	r := s.results[idx]
	return r.text, r.err
}

func failures(n int, err error, then result) []result {
	out := make([]result, 0, n+1)
	for i := 0; i < n; i++ {
		out = append(out, result{err: err})
	}
	return append(out, then)
}

// recordingTimer fires immediately and records each requested delay
type recordingTimer struct {
	delays []time.Duration
	c      chan time.Time
}

func (t *recordingTimer) Start(d time.Duration) {
	t.delays = append(t.delays, d)
	t.c = make(chan time.Time, 1)
	t.c <- time.Now()
}

func (t *recordingTimer) Stop() {}

func (t *recordingTimer) C() <-chan time.Time { return t.c }

func newTestInvoker(c Completer, timer *recordingTimer, opts ...InvokerOption) *Invoker {
	base := []InvokerOption{
		WithJitter(func() float64 { return 1 }),
		WithTimer(func() backoff.Timer { return timer }),
	}
	return NewInvoker(c, append(base, opts...)...)
}

var (
	rateLimited = &BackendError{Kind: KindRateLimited, StatusCode: 429}
	unavailable = &BackendError{Kind: KindServerUnavailable, StatusCode: 503}
)

func TestInvoker_RecoversWithinRetryBudget(t *testing.T) {
	for n := 0; n <= DefaultRetries; n++ {
		completer := &scriptedCompleter{results: failures(n, rateLimited, result{text: "done"})}
		timer := &recordingTimer{}
		inv := newTestInvoker(completer, timer)

		text, err := inv.Invoke(context.Background(), []Message{User("x")}, Options{})
		require.NoError(t, err, "failures=%d", n)
		assert.Equal(t, "done", text)
		assert.Equal(t, n+1, completer.calls)
		assert.Len(t, timer.delays, n)
	}
}

func TestInvoker_ExhaustsRetries(t *testing.T) {
	completer := &scriptedCompleter{results: failures(10, unavailable, result{text: "never"})}
	timer := &recordingTimer{}
	inv := newTestInvoker(completer, timer, WithRetries(3))

	_, err := inv.Invoke(context.Background(), []Message{User("x")}, Options{})
	require.Error(t, err)
	assert.Equal(t, 4, completer.calls)

	var backendErr *BackendError
	require.True(t, errors.As(err, &backendErr))
	assert.Equal(t, KindServerUnavailable, backendErr.Kind)
}

func TestInvoker_ExponentialDelays(t *testing.T) {
	completer := &scriptedCompleter{results: failures(10, rateLimited, result{})}
	timer := &recordingTimer{}
	inv := newTestInvoker(completer, timer, WithBackoffBase(100*time.Millisecond))

	_, _ = inv.Invoke(context.Background(), []Message{User("x")}, Options{})
	assert.Equal(t, []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
	}, timer.delays)
}

func TestInvoker_JitterBounds(t *testing.T) {
	completer := &scriptedCompleter{results: failures(10, rateLimited, result{})}
	timer := &recordingTimer{}
	inv := NewInvoker(completer,
		WithBackoffBase(time.Second),
		WithTimer(func() backoff.Timer { return timer }))

	_, _ = inv.Invoke(context.Background(), []Message{User("x")}, Options{})
	require.Len(t, timer.delays, 3)
	for i, d := range timer.delays {
		nominal := time.Second << i
		assert.GreaterOrEqual(t, d, time.Duration(float64(nominal)*0.8))
		assert.Less(t, d, time.Duration(float64(nominal)*1.3))
	}
}

func TestInvoker_NonTransientFailsImmediately(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"invalid request", &BackendError{Kind: KindInvalidRequest, StatusCode: 400}},
		{"unknown", &BackendError{Kind: KindUnknown}},
		{"plain error", errors.New("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			completer := &scriptedCompleter{results: []result{{err: tt.err}}}
			timer := &recordingTimer{}
			inv := newTestInvoker(completer, timer)

			_, err := inv.Invoke(context.Background(), []Message{User("x")}, Options{})
			require.Error(t, err)
			assert.Equal(t, tt.err.Error(), err.Error())
			assert.Equal(t, 1, completer.calls)
			assert.Empty(t, timer.delays)
		})
	}
}

func TestInvoker_CancelledDuringBackoff(t *testing.T) {
	completer := &scriptedCompleter{results: failures(10, rateLimited, result{})}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	inv := NewInvoker(completer, WithBackoffBase(time.Hour))
	_, err := inv.Invoke(ctx, []Message{User("x")}, Options{})
	require.ErrorIs(t, err, context.Canceled)
	assert.LessOrEqual(t, completer.calls, 1)
}

func TestInvoker_CountsCalls(t *testing.T) {
	completer := &scriptedCompleter{results: failures(2, unavailable, result{text: "ok"})}
	inv := newTestInvoker(completer, &recordingTimer{})

	ctx, stats := WithStats(context.Background())
	_, err := inv.Invoke(ctx, []Message{User("x")}, Options{})
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Calls())
	assert.Equal(t, 0, stats.Repairs())
}
