package ratelimit

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/niksmo/catalog/internal/core/domain"
	"github.com/niksmo/catalog/internal/core/port"
	"golang.org/x/time/rate"
)

var _ port.RateLimiter = (*Memory)(nil)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Memory is a per-key token bucket limiter held in process memory.
//
// Every key may burst up to Requests and refills at Requests per Window.
// Keys idle for two windows are evicted.
type Memory struct {
	cfg      Config
	interval time.Duration
	now      func() time.Time

	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
}

func NewMemory(cfg Config) (*Memory, error) {
	const op = "NewMemory"
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Memory{
		cfg:      cfg,
		interval: cfg.Window / time.Duration(cfg.Requests),
		now:      time.Now,
		visitors: make(map[string]*visitor),
	}, nil
}

func (m *Memory) Allow(_ context.Context, key string) (domain.RateDecision, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.sweep(now)

	v, ok := m.visitors[key]
	if !ok {
		v = &visitor{
			limiter: rate.NewLimiter(rate.Every(m.interval), m.cfg.Requests),
		}
		m.visitors[key] = v
	}
	v.lastSeen = now

	allowed := v.limiter.AllowN(now, 1)
	tokens := v.limiter.TokensAt(now)

	d := domain.RateDecision{
		Allowed:   allowed,
		Limit:     m.cfg.Requests,
		Remaining: max(0, int(math.Floor(tokens))),
	}
	if allowed {
		missing := float64(m.cfg.Requests) - tokens
		d.ResetAt = now.Add(time.Duration(missing * float64(m.interval)))
	} else {
		d.ResetAt = now.Add(time.Duration((1 - tokens) * float64(m.interval)))
	}
	return d, nil
}

// Len reports the number of tracked keys.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.visitors)
}

func (m *Memory) sweep(now time.Time) {
	if now.Sub(m.lastSweep) < m.cfg.Window {
		return
	}
	m.lastSweep = now

	idle := 2 * m.cfg.Window
	for key, v := range m.visitors {
		if now.Sub(v.lastSeen) > idle {
			delete(m.visitors, key)
		}
	}
}
