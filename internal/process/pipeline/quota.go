package pipeline

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// appLimiters lazily creates a token-bucket limiter per app (spec §4.1
// "QuotaExceeded" failure mode, spec §5 per-app rate limit), mirroring
// UserSerializer's lazy per-key map pattern in internal/platform/worker.
type appLimiters struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      int
}

func newAppLimiters(rps int) *appLimiters {
	return &appLimiters{limiters: make(map[string]*rate.Limiter), rps: rps}
}

// allowN reports whether n observations may be admitted for appID right
// now, without blocking.
func (a *appLimiters) allowN(appID string, n int) bool {
	return a.limiterFor(appID).AllowN(time.Now(), n)
}

func (a *appLimiters) limiterFor(appID string) *rate.Limiter {
	a.mu.Lock()
	defer a.mu.Unlock()

	l, ok := a.limiters[appID]
	if !ok {
		l = rate.NewLimiter(rate.Limit(a.rps), a.rps*MaxBatchSize/defaultAppRateLimitBurstDivisor+a.rps)
		a.limiters[appID] = l
	}

	return l
}

// defaultAppRateLimitBurstDivisor keeps a single batch from always
// draining the bucket in one shot, while still letting a full-size batch
// through for an app with a reasonably configured rps.
const defaultAppRateLimitBurstDivisor = 4
