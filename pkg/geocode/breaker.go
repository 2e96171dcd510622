package geocode

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
)

// ErrCircuitOpen is returned for a provider that is skipped after repeated
// failures.
var ErrCircuitOpen = eris.New("geocode: provider circuit open")

type breakerState int

const (
	breakerClosed breakerState = iota
	breakerOpen
	breakerHalfOpen
)

func (s breakerState) String() string {
	switch s {
	case breakerClosed:
		return "closed"
	case breakerOpen:
		return "open"
	case breakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// breaker opens after threshold consecutive provider errors and admits a
// single trial call once reset has elapsed. Unmatched answers count as success.
type breaker struct {
	threshold int
	reset     time.Duration

	mu       sync.Mutex
	state    breakerState
	failures int
	openedAt time.Time
	probing  bool
	now      func() time.Time
}

func newBreaker(threshold int, reset time.Duration) *breaker {
	if threshold <= 0 {
		threshold = 5
	}
	if reset <= 0 {
		reset = 30 * time.Second
	}
	return &breaker{threshold: threshold, reset: reset, now: time.Now}
}

func (b *breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case breakerOpen:
		if b.now().Sub(b.openedAt) < b.reset {
			return false
		}
		b.state = breakerHalfOpen
		b.probing = true
		return true
	case breakerHalfOpen:
		if b.probing {
			return false
		}
		b.probing = true
		return true
	default:
		return true
	}
}

func (b *breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		b.state = breakerClosed
		b.failures = 0
		b.probing = false
		return
	}

	b.failures++
	if b.state == breakerHalfOpen || b.failures >= b.threshold {
		b.state = breakerOpen
		b.openedAt = b.now()
	}
	b.probing = false
}

func (b *breaker) current() breakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// breakerProvider guards a Provider with a breaker.
type breakerProvider struct {
	Provider
	b *breaker
}

func (p *breakerProvider) Geocode(ctx context.Context, address string) (*Result, error) {
	if !p.b.allow() {
		return nil, eris.Wrapf(ErrCircuitOpen, "geocode: %s", p.Name())
	}
	res, err := p.Provider.Geocode(ctx, address)
	// A cancelled caller says nothing about the provider's health.
	if err != nil && ctx.Err() != nil {
		p.b.mu.Lock()
		p.b.probing = false
		p.b.mu.Unlock()
		return res, err
	}
	p.b.record(err)
	return res, err
}

// WithCircuitBreaker skips a provider for reset after threshold consecutive
// errors. A zero threshold disables the breaker.
func WithCircuitBreaker(threshold int, reset time.Duration) Option {
	return func(g *geocoder) {
		g.breakerThreshold = threshold
		g.breakerReset = reset
	}
}
