package auth

import (
	"context"
	"time"

	"github.com/adspotmarket/adspot-backend/pkg/config"
	"github.com/adspotmarket/adspot-backend/pkg/logger"
)

// attemptCounter is the subset of Repository the limiter needs.
type attemptCounter interface {
	CountRecentFailures(ctx context.Context, email string, since time.Time) (int64, error)
	OldestRecentFailure(ctx context.Context, email string, since time.Time) (*time.Time, error)
}

// LoginLimiter applies a sliding-window limit over failed login attempts for
// a single email. The window is computed from the login_attempts audit table
// so limits survive process restarts.
type LoginLimiter struct {
	counter  attemptCounter
	window   time.Duration
	limit    int
	failOpen bool
	logg     *logger.Logger
	now      func() time.Time
}

// Decision is the limiter verdict for one login attempt.
type Decision struct {
	Allowed bool
	// Degraded is set when the attempt store was unreachable and the
	// fail-open policy let the attempt through unchecked.
	Degraded bool
	Failures int64
	// AttemptsRemaining is how many more failures the window tolerates.
	AttemptsRemaining int
	// BlockedUntil is when the oldest counted failure ages out of the
	// window. Only set when the attempt is blocked.
	BlockedUntil *time.Time
}

func NewLoginLimiter(counter attemptCounter, cfg config.AuthRateLimitConfig, logg *logger.Logger) *LoginLimiter {
	return &LoginLimiter{
		counter:  counter,
		window:   cfg.LoginWindow,
		limit:    cfg.LoginEmailLimit,
		failOpen: cfg.FailOpen,
		logg:     logg,
		now:      time.Now,
	}
}

// Check returns whether the email may attempt a login right now. When the
// underlying store is unavailable the configured policy decides: fail open
// admits the attempt (flagged Degraded), fail closed returns the error.
func (l *LoginLimiter) Check(ctx context.Context, email string) (Decision, error) {
	if l.limit <= 0 || l.window <= 0 {
		return Decision{Allowed: true}, nil
	}

	since := l.now().Add(-l.window)
	failures, err := l.counter.CountRecentFailures(ctx, email, since)
	if err != nil {
		if l.failOpen {
			if l.logg != nil {
				l.logg.Warn(ctx, "login rate limit check degraded, admitting attempt")
			}
			return Decision{Allowed: true, Degraded: true}, nil
		}
		return Decision{}, err
	}

	decision := Decision{
		Allowed:  failures < int64(l.limit),
		Failures: failures,
	}
	if remaining := int64(l.limit) - failures; remaining > 0 {
		decision.AttemptsRemaining = int(remaining)
	}
	if !decision.Allowed {
		oldest, err := l.counter.OldestRecentFailure(ctx, email, since)
		if err == nil && oldest != nil {
			liftsAt := oldest.Add(l.window)
			decision.BlockedUntil = &liftsAt
		}
	}
	return decision, nil
}
