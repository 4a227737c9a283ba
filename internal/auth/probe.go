package auth

import (
	"context"
	"sync"

	"github.com/angelmondragon/storefront/pkg/logger"
	"golang.org/x/sync/singleflight"
)

// StatusFetcher queries the backend auth status endpoint.
type StatusFetcher interface {
	AuthStatus(ctx context.Context) (State, error)
}

// Probe caches the auth state for one session. Concurrent callers share a
// single in-flight request and only successful answers are cached.
type Probe struct {
	fetcher StatusFetcher
	logg    *logger.Logger
	group   singleflight.Group

	mu     sync.Mutex
	cached *State
}

func NewProbe(fetcher StatusFetcher, logg *logger.Logger) *Probe {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Probe{fetcher: fetcher, logg: logg}
}

// State returns the cached state or fetches it once.
func (p *Probe) State(ctx context.Context) (State, error) {
	p.mu.Lock()
	if p.cached != nil {
		state := *p.cached
		p.mu.Unlock()
		return state, nil
	}
	p.mu.Unlock()

	v, err, shared := p.group.Do("status", func() (any, error) {
		p.mu.Lock()
		if p.cached != nil {
			state := *p.cached
			p.mu.Unlock()
			return state, nil
		}
		p.mu.Unlock()

		state, err := p.fetcher.AuthStatus(ctx)
		if err != nil {
			return State{}, err
		}
		p.mu.Lock()
		p.cached = &state
		p.mu.Unlock()
		return state, nil
	})
	if err != nil {
		p.logg.Warn(p.logg.WithField(ctx, "error", err.Error()), "auth status probe failed")
		return State{}, err
	}
	if shared {
		p.logg.Debug(ctx, "auth status shared with in-flight probe")
	}
	return v.(State), nil
}

// IsLoggedIn reports whether the session is authenticated.
func (p *Probe) IsLoggedIn(ctx context.Context) (bool, error) {
	state, err := p.State(ctx)
	if err != nil {
		return false, err
	}
	return state.IsLoggedIn, nil
}

// Reset drops the cached state so the next call asks the backend again.
func (p *Probe) Reset() {
	p.mu.Lock()
	p.cached = nil
	p.mu.Unlock()
	p.group.Forget("status")
}
