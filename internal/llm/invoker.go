package llm

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

const (
	DefaultRetries     = 3
	DefaultBackoffBase = 400 * time.Millisecond
)

// Completer performs a single backend completion call
type Completer interface {
	Complete(ctx context.Context, messages []Message, opts Options) (string, error)
}

// Invoker wraps a Completer with bounded retries on transient failures.
// It holds no per-call state and may be shared across goroutines.
type Invoker struct {
	completer Completer
	retries   int
	base      time.Duration
	jitter    func() float64
	newTimer  func() backoff.Timer
	log       *zap.Logger
}

// InvokerOption customizes the invoker
type InvokerOption func(*Invoker)

// WithRetries sets the number of retries after the first attempt
func WithRetries(n int) InvokerOption {
	return func(i *Invoker) {
		if n >= 0 {
			i.retries = n
		}
	}
}

// WithBackoffBase sets the delay before the first retry
func WithBackoffBase(d time.Duration) InvokerOption {
	return func(i *Invoker) {
		if d >= 0 {
			i.base = d
		}
	}
}

// WithJitter replaces the jitter source. The function must return a
// multiplier in [0.8, 1.3).
func WithJitter(fn func() float64) InvokerOption {
	return func(i *Invoker) {
		if fn != nil {
			i.jitter = fn
		}
	}
}

// WithTimer replaces the timer used between attempts
func WithTimer(fn func() backoff.Timer) InvokerOption {
	return func(i *Invoker) {
		i.newTimer = fn
	}
}

// WithInvokerLogger sets the invoker logger
func WithInvokerLogger(log *zap.Logger) InvokerOption {
	return func(i *Invoker) {
		if log != nil {
			i.log = log
		}
	}
}

// NewInvoker creates a retrying invoker around completer
func NewInvoker(completer Completer, opts ...InvokerOption) *Invoker {
	i := &Invoker{
		completer: completer,
		retries:   DefaultRetries,
		base:      DefaultBackoffBase,
		jitter:    defaultJitter,
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func defaultJitter() float64 {
	return 0.8 + rand.Float64()*0.5
}

// Retries returns the configured retry count
func (i *Invoker) Retries() int {
	return i.retries
}

// Invoke calls the backend, retrying rate-limited and unavailable failures
// with jittered exponential backoff. Other failures return immediately.
func (i *Invoker) Invoke(ctx context.Context, messages []Message, opts Options) (string, error) {
	stats := StatsFromContext(ctx)
	attempt := 0

	operation := func() (string, error) {
		attempt++
		stats.addCall()
		text, err := i.completer.Complete(ctx, messages, opts)
		switch {
		case err == nil:
			return text, nil
		case ctx.Err() != nil:
			return "", backoff.Permanent(ctx.Err())
		case !IsTransient(err):
			return "", backoff.Permanent(err)
		}
		return "", err
	}

	notify := func(err error, delay time.Duration) {
		kind, _ := KindOf(err)
		i.log.Warn("retrying llm call",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", i.retries+1),
			zap.Duration("delay", delay),
			zap.String("kind", kind.String()),
			zap.Error(err))
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(&jitteredBackOff{base: i.base, jitter: i.jitter}, uint64(i.retries)),
		ctx,
	)

	var timer backoff.Timer
	if i.newTimer != nil {
		timer = i.newTimer()
	}

	text, err := backoff.RetryNotifyWithTimerAndData(operation, policy, notify, timer)
	if err != nil {
		if IsTransient(err) {
			i.log.Error("llm call failed after retries",
				zap.Int("attempts", attempt),
				zap.Error(err))
		}
		return "", err
	}
	return text, nil
}

// jitteredBackOff yields base * 2^(n-1) * jitter for the n-th retry
type jitteredBackOff struct {
	base    time.Duration
	jitter  func() float64
	attempt int
}

func (b *jitteredBackOff) NextBackOff() time.Duration {
	b.attempt++
	delay := float64(b.base) * math.Pow(2, float64(b.attempt-1)) * b.jitter()
	return time.Duration(delay)
}

func (b *jitteredBackOff) Reset() {
	b.attempt = 0
}
