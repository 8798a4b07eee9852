// file: internal/spotify/rate_limiter.go
package spotify

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/time/rate"
)

// maxRateLimitWait is the longest a caller is made to wait for a token.
const maxRateLimitWait = 5 * time.Second

// ErrRateLimited is returned when a request would have to wait longer than maxRateLimitWait.
var ErrRateLimited = errors.New("client-side rate limit exceeded, try again later")

// RateLimiter limits outgoing Web API requests with a token bucket.
// A nil *RateLimiter never blocks.
type RateLimiter struct {
	limiter *rate.Limiter
	now     func() time.Time
}

// NewRateLimiter creates a limiter allowing rps requests per second with the given burst.
// A non-positive rps returns nil, which disables limiting.
func NewRateLimiter(rps float64, burstLimit int) *RateLimiter {
	if rps <= 0 {
		return nil
	}
	if burstLimit < 1 {
		burstLimit = 1
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burstLimit),
		now:     time.Now,
	}
}

// reserve takes a token and reports how long the caller must wait before using it.
// Reservations that would wait longer than maxRateLimitWait are given back.
func (l *RateLimiter) reserve() (*rate.Reservation, time.Duration, error) {
	now := l.now()
	r := l.limiter.ReserveN(now, 1)
	if !r.OK() {
		return nil, 0, errors.WithStack(ErrRateLimited)
	}
	wait := r.DelayFrom(now)
	if wait > maxRateLimitWait {
		r.CancelAt(now)
		return nil, 0, errors.WithStack(ErrRateLimited)
	}
	return r, wait, nil
}

// Wait blocks until a request may proceed or ctx is done.
func (l *RateLimiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}
	r, wait, err := l.reserve()
	if err != nil {
		return err
	}
	if wait == 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		r.CancelAt(l.now())
		return ctx.Err()
	}
}

// SetRateLimit updates the rate and burst limit.
func (l *RateLimiter) SetRateLimit(rps float64, burstLimit int) {
	if l == nil {
		return
	}
	now := l.now()
	l.limiter.SetLimitAt(now, rate.Limit(rps))
	l.limiter.SetBurstAt(now, burstLimit)
}
