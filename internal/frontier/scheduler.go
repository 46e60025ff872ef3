package frontier

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Scheduler enforces a minimum interval between requests to the same host.
type Scheduler struct {
	minInterval time.Duration

	mu       sync.Mutex
	limiters map[string]*hostLimiter
}

type hostLimiter struct {
	limiter  *rate.Limiter
	interval time.Duration
}

// NewScheduler creates a scheduler with the given per-host minimum interval.
func NewScheduler(minInterval time.Duration) *Scheduler {
	return &Scheduler{
		minInterval: minInterval,
		limiters:    make(map[string]*hostLimiter),
	}
}

// Wait blocks until host may be requested again. The interval is the larger
// of the scheduler minimum and crawlDelay. The first request to a host never
// waits.
func (s *Scheduler) Wait(ctx context.Context, host string, crawlDelay time.Duration) error {
	interval := max(s.minInterval, crawlDelay)
	if interval <= 0 {
		return nil
	}
	return s.limiter(CanonicalHost(host), interval).Wait(ctx)
}

func (s *Scheduler) limiter(host string, interval time.Duration) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	hl, ok := s.limiters[host]
	if !ok {
		hl = &hostLimiter{limiter: rate.NewLimiter(rate.Every(interval), 1), interval: interval}
		s.limiters[host] = hl
		return hl.limiter
	}
	if hl.interval != interval {
		hl.limiter.SetLimit(rate.Every(interval))
		hl.interval = interval
	}
	return hl.limiter
}
