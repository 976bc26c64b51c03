package manager

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"geocoding/observability"
)

const (
	methodForward = "forward"
	methodReverse = "reverse"
)

// RetryPolicy decides whether a failed attempt is repeated and after how long.
// attempt starts at 1 for the first failure.
type RetryPolicy interface {
	Backoff(attempt int, err error) (time.Duration, bool)
}

// DefaultMaxBackoff caps ExponentialBackoff delays when Max is unset.
const DefaultMaxBackoff = time.Minute

// ExponentialBackoff retries retryable errors up to Retries times, doubling
// the delay each time and capping it at Max (DefaultMaxBackoff when zero).
type ExponentialBackoff struct {
	Retries int
	Initial time.Duration
	Max     time.Duration
}

func (b ExponentialBackoff) Backoff(attempt int, err error) (time.Duration, bool) {
	if attempt > b.Retries || !IsRetryable(err) {
		return 0, false
	}

	limit := b.Max
	if limit <= 0 {
		limit = DefaultMaxBackoff
	}

	d := b.Initial
	for i := 1; i < attempt && d < limit; i++ {
		d *= 2
	}
	if d > limit || d < 0 {
		d = limit
	}
	return d, true
}

// quotaReporter is implemented by providers that track a daily quota.
type quotaReporter interface {
	RemainingCalls() (int, bool)
}

type Option func(*Manager)

func WithLogger(l *log.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

func WithMetrics(metrics *observability.Metrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

func WithRetry(p RetryPolicy) Option {
	return func(m *Manager) { m.retry = p }
}

func WithClock(c clockwork.Clock) Option {
	return func(m *Manager) { m.clock = c }
}

// Manager is the provider-agnostic entry point. It holds no per-call state
// and is safe for concurrent use.
type Manager struct {
	geocoder Geocoder
	logger   *log.Logger
	metrics  *observability.Metrics
	retry    RetryPolicy
	clock    clockwork.Clock
}

func New(geocoder Geocoder, opts ...Option) *Manager {
	m := &Manager{
		geocoder: geocoder,
		logger:   observability.Discard(),
		clock:    clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Provider() string {
	return m.geocoder.Name()
}

// Forward geocodes an address. An empty slice means no match.
func (m *Manager) Forward(ctx context.Context, query Query) ([]Result, error) {
	return m.do(ctx, methodForward, func(ctx context.Context) ([]Result, error) {
		return m.geocoder.Forward(ctx, query)
	})
}

// Reverse geocodes a coordinate pair.
func (m *Manager) Reverse(ctx context.Context, lat, lon float64) ([]Result, error) {
	return m.ReverseWith(ctx, ReverseQuery(lat, lon))
}

// ReverseWith reverse geocodes with extra options (language, limit).
func (m *Manager) ReverseWith(ctx context.Context, query Query) ([]Result, error) {
	return m.do(ctx, methodReverse, func(ctx context.Context) ([]Result, error) {
		return m.geocoder.Reverse(ctx, query)
	})
}

type BatchResult struct {
	Address string
	Results []Result
	Err     error
}

// ForwardAll geocodes every address independently, at most concurrency at a
// time. Output order follows input order; one failure does not stop the rest.
func (m *Manager) ForwardAll(ctx context.Context, concurrency int, template Query, addresses ...string) []BatchResult {
	out := make([]BatchResult, len(addresses))

	g, ctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}

	for i, address := range addresses {
		g.Go(func() error {
			q := template
			q.Address = address
			results, err := m.Forward(ctx, q)
			out[i] = BatchResult{Address: address, Results: results, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return out
}

func (m *Manager) do(ctx context.Context, method string, call func(context.Context) ([]Result, error)) ([]Result, error) {
	provider := m.geocoder.Name()
	start := m.clock.Now()

	for attempt := 1; ; attempt++ {
		results, err := call(ctx)
		if err == nil {
			if results == nil {
				results = []Result{}
			}
			m.observe(provider, method, start, results, nil)
			m.logger.Debug("geocoded", "provider", provider, "method", method,
				"results", len(results), "elapsed", m.clock.Since(start))
			return results, nil
		}

		err = typed(provider, err)
		if m.retry == nil {
			m.fail(provider, method, start, err)
			return nil, err
		}

		delay, ok := m.retry.Backoff(attempt, err)
		if !ok {
			m.fail(provider, method, start, err)
			return nil, err
		}

		m.logger.Warn("retrying", "provider", provider, "method", method, "attempt", attempt, "delay", delay, "err", err)
		if m.metrics != nil {
			m.metrics.Retries.WithLabelValues(provider, method).Inc()
		}

		select {
		case <-ctx.Done():
			err = CancelledError(provider, ctx.Err())
			m.fail(provider, method, start, err)
			return nil, err
		case <-m.clock.After(delay):
		}
	}
}

func (m *Manager) fail(provider, method string, start time.Time, err error) {
	m.observe(provider, method, start, nil, err)
	m.logger.Warn("geocoding failed", "provider", provider, "method", method,
		"elapsed", m.clock.Since(start), "err", err)
}

func (m *Manager) observe(provider, method string, start time.Time, results []Result, err error) {
	if m.metrics == nil {
		return
	}

	m.metrics.Duration.WithLabelValues(provider, method).Observe(m.clock.Since(start).Seconds())

	if q, ok := m.geocoder.(quotaReporter); ok {
		if remaining, ok := q.RemainingCalls(); ok {
			m.metrics.RemainingCalls.WithLabelValues(provider).Set(float64(remaining))
		}
	}

	switch {
	case err != nil:
		m.metrics.Requests.WithLabelValues(provider, method, "error").Inc()
		m.metrics.Errors.WithLabelValues(provider, KindOf(err).String()).Inc()
	case len(results) == 0:
		m.metrics.Requests.WithLabelValues(provider, method, "empty").Inc()
	default:
		m.metrics.Requests.WithLabelValues(provider, method, "success").Inc()
	}
}

// typed makes sure foreign Geocoder implementations still surface a ProviderError.
func typed(provider string, err error) error {
	if KindOf(err) != 0 {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return CancelledError(provider, err)
	}
	return NetworkError(provider, err)
}
