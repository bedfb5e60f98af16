// Package breaker implements a per-service circuit breaker registry for the
// front-door gateway. Each downstream service gets its own state machine and
// its own lock, so one degraded service never serializes traffic to the
// others.
package breaker

import (
	"sync"
	"time"
)

const (
	DefaultThreshold    = 5
	DefaultResetTimeout = 30 * time.Second
)

// Breaker is the per-service state machine. It opens after threshold
// consecutive failures and re-closes optimistically once resetTimeout has
// elapsed since the last failure.
type Breaker struct {
	mu           sync.Mutex
	failures     int
	lastFailure  time.Time
	open         bool
	threshold    int
	resetTimeout time.Duration
	now          func() time.Time
}

// Allow reports whether a request may be forwarded. While open it checks
// whether the reset timeout has elapsed; if so the breaker closes, the
// failure count resets and the request is let through.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.open {
		return true
	}

	if b.now().Sub(b.lastFailure) > b.resetTimeout {
		b.open = false
		b.failures = 0
		return true
	}
	return false
}

// ReportFailure counts a transport-level failure and opens the breaker at
// the threshold.
func (b *Breaker) ReportFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.lastFailure = b.now()
	if b.failures >= b.threshold {
		b.open = true
	}
}

// ReportSuccess clears the failure count while closed, so stale failures
// from minutes ago cannot combine with fresh ones to trip the breaker.
func (b *Breaker) ReportSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.open {
		b.failures = 0
	}
}

// IsOpen is a point-in-time snapshot, for health reporting.
func (b *Breaker) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open
}

// Registry owns one Breaker per downstream service name. State is
// process-local and resets on restart.
type Registry struct {
	mu           sync.RWMutex
	breakers     map[string]*Breaker
	threshold    int
	resetTimeout time.Duration
	now          func() time.Time
}

func NewRegistry(threshold int, resetTimeout time.Duration) *Registry {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if resetTimeout <= 0 {
		resetTimeout = DefaultResetTimeout
	}
	return &Registry{
		breakers:     make(map[string]*Breaker),
		threshold:    threshold,
		resetTimeout: resetTimeout,
		now:          time.Now,
	}
}

// Get returns the breaker for service, creating it closed on first use.
func (r *Registry) Get(service string) *Breaker {
	r.mu.RLock()
	b, ok := r.breakers[service]
	r.mu.RUnlock()
	if ok {
		return b
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok = r.breakers[service]; ok {
		return b
	}
	b = &Breaker{
		threshold:    r.threshold,
		resetTimeout: r.resetTimeout,
		now:          r.now,
	}
	r.breakers[service] = b
	return b
}

func (r *Registry) Allow(service string) bool {
	return r.Get(service).Allow()
}

func (r *Registry) ReportFailure(service string) {
	r.Get(service).ReportFailure()
}

func (r *Registry) ReportSuccess(service string) {
	r.Get(service).ReportSuccess()
}
