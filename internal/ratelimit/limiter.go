package ratelimit

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	minuteWindow = time.Minute
	hourWindow   = time.Hour
	dayWindow    = 24 * time.Hour
)

// Result is the outcome of one quota check.
type Result struct {
	Allowed           bool          `json:"allowed"`
	Reason            string        `json:"reason,omitempty"`
	RetryAfter        time.Duration `json:"retry_after,omitempty"`
	RemainingRequests int           `json:"remaining_requests"`
	RemainingCost     int           `json:"remaining_cost"`
	ResetAt           time.Time     `json:"reset_at,omitzero"`
}

// Usage is a point-in-time snapshot of one subject's consumption.
type Usage struct {
	Requests   WindowCounts `json:"requests"`
	Cost       WindowCounts `json:"cost"`
	Rejections int64        `json:"rejections"`
	InCooldown bool         `json:"in_cooldown"`
}

// WindowCounts breaks one metric down by tracking window.
type WindowCounts struct {
	Minute int   `json:"minute"`
	Hour   int   `json:"hour"`
	Day    int   `json:"day"`
	Total  int64 `json:"total"`
}

// window counts requests and cost since its start; it rolls lazily
// when read past its duration.
type window struct {
	start    time.Time
	requests int
	cost     int
}

func (w *window) roll(now time.Time, d time.Duration) {
	if now.Sub(w.start) >= d {
		w.start = now
		w.requests = 0
		w.cost = 0
	}
}

type state struct {
	minute window
	hour   window
	day    window

	cooldownUntil time.Time

	totalRequests int64
	totalCost     int64
	rejections    int64
}

func (s *state) rollAll(now time.Time) {
	s.minute.roll(now, minuteWindow)
	s.hour.roll(now, hourWindow)
	s.day.roll(now, dayWindow)
}

// Limiter tracks per-subject request and cost quotas across minute,
// hour, and day windows. Check is advisory and never consumes quota;
// callers commit consumption with Record once the work completed.
type Limiter struct {
	cfg Config
	log zerolog.Logger

	mu          sync.Mutex
	states      map[string]*state
	lastCleanup time.Time

	now func() time.Time
}

// New builds a limiter. State is in-memory only and starts empty.
func New(cfg Config, log zerolog.Logger) *Limiter {
	return &Limiter{
		cfg:         cfg,
		log:         log,
		states:      make(map[string]*state),
		lastCleanup: time.Now(),
		now:         time.Now,
	}
}

// Check reports whether a request of the given estimated cost fits the
// subject's remaining quota. Counts are not consumed; only the
// rejection counter moves on a deny.
func (l *Limiter) Check(subjectID string, estimatedCost int) Result {
	if !l.cfg.Enabled {
		return Result{Allowed: true, RemainingRequests: 999999}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastCleanup) > l.cfg.CleanupInterval {
		l.cleanup(now)
		l.lastCleanup = now
	}

	st, ok := l.states[subjectID]
	if !ok {
		st = &state{
			minute: window{start: now},
			hour:   window{start: now},
			day:    window{start: now},
		}
		l.states[subjectID] = st
	}

	if st.cooldownUntil.After(now) {
		return Result{
			Allowed:    false,
			Reason:     "in cooldown period",
			RetryAfter: st.cooldownUntil.Sub(now),
			ResetAt:    st.cooldownUntil,
		}
	}

	st.rollAll(now)

	result := l.checkLimits(st, estimatedCost, now)
	if !result.Allowed {
		st.rejections++
		l.log.Warn().
			Str("subject", subjectID).
			Str("reason", result.Reason).
			Msg("quota exceeded")
	}
	return result
}

// checkLimits applies the fixed window order: request limits tightest
// window first, then cost limits. Request checks compare the count
// already in the window; cost checks include the incoming estimate.
func (l *Limiter) checkLimits(st *state, estimatedCost int, now time.Time) Result {
	cfg := l.cfg
	burst := cfg.BurstMultiplier

	if st.minute.requests >= int(float64(cfg.RequestsPerMinute)*burst) {
		return deny("requests per minute exceeded", st.minute.start, minuteWindow, now)
	}
	if st.hour.requests >= cfg.RequestsPerHour {
		return deny("requests per hour exceeded", st.hour.start, hourWindow, now)
	}
	if st.day.requests >= cfg.RequestsPerDay {
		return deny("requests per day exceeded", st.day.start, dayWindow, now)
	}

	if st.minute.cost+estimatedCost > int(float64(cfg.CostPerMinute)*burst) {
		r := deny("cost per minute exceeded", st.minute.start, minuteWindow, now)
		r.RemainingCost = max(0, cfg.CostPerMinute-st.minute.cost)
		return r
	}
	if st.hour.cost+estimatedCost > cfg.CostPerHour {
		r := deny("cost per hour exceeded", st.hour.start, hourWindow, now)
		r.RemainingCost = max(0, cfg.CostPerHour-st.hour.cost)
		return r
	}
	if st.day.cost+estimatedCost > cfg.CostPerDay {
		r := deny("cost per day exceeded", st.day.start, dayWindow, now)
		r.RemainingCost = max(0, cfg.CostPerDay-st.day.cost)
		return r
	}

	// Burst can push a window past its base limit, so headroom is
	// clamped rather than reported negative.
	return Result{
		Allowed: true,
		RemainingRequests: max(0, min(
			cfg.RequestsPerMinute-st.minute.requests,
			cfg.RequestsPerHour-st.hour.requests,
			cfg.RequestsPerDay-st.day.requests,
		)),
		RemainingCost: max(0, min(
			cfg.CostPerMinute-st.minute.cost,
			cfg.CostPerHour-st.hour.cost,
			cfg.CostPerDay-st.day.cost,
		)),
	}
}

func deny(reason string, windowStart time.Time, d time.Duration, now time.Time) Result {
	resetAt := windowStart.Add(d)
	return Result{
		Allowed:    false,
		Reason:     reason,
		RetryAfter: resetAt.Sub(now),
		ResetAt:    resetAt,
	}
}

// Record commits the actual cost of a completed request. A subject
// never seen by Check is a no-op.
func (l *Limiter) Record(subjectID string, costUsed int) {
	if !l.cfg.Enabled {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	st, ok := l.states[subjectID]
	if !ok {
		return
	}

	now := l.now()
	st.rollAll(now)

	st.minute.requests++
	st.hour.requests++
	st.day.requests++
	st.minute.cost += costUsed
	st.hour.cost += costUsed
	st.day.cost += costUsed
	st.totalRequests++
	st.totalCost += int64(costUsed)
}

// SetCooldown shuts a subject out for d, or for the configured default
// when d is zero.
func (l *Limiter) SetCooldown(subjectID string, d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	st, ok := l.states[subjectID]
	if !ok {
		st = &state{}
		l.states[subjectID] = st
	}

	if d == 0 {
		d = l.cfg.Cooldown
	}
	st.cooldownUntil = l.now().Add(d)
	l.log.Info().
		Str("subject", subjectID).
		Dur("duration", d).
		Msg("cooldown set")
}

// Usage returns the subject's current consumption. Unknown subjects
// report zeros.
func (l *Limiter) Usage(subjectID string) Usage {
	l.mu.Lock()
	defer l.mu.Unlock()

	st, ok := l.states[subjectID]
	if !ok {
		return Usage{}
	}

	now := l.now()
	st.rollAll(now)

	return Usage{
		Requests: WindowCounts{
			Minute: st.minute.requests,
			Hour:   st.hour.requests,
			Day:    st.day.requests,
			Total:  st.totalRequests,
		},
		Cost: WindowCounts{
			Minute: st.minute.cost,
			Hour:   st.hour.cost,
			Day:    st.day.cost,
			Total:  st.totalCost,
		},
		Rejections: st.rejections,
		InCooldown: st.cooldownUntil.After(now),
	}
}

// cleanup drops subjects idle for a full day window with no pending
// cooldown. Called with the lock held.
func (l *Limiter) cleanup(now time.Time) {
	var expired []string
	for id, st := range l.states {
		if now.Sub(st.day.start) > dayWindow && st.cooldownUntil.Before(now) && st.day.requests == 0 {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		delete(l.states, id)
	}
	if len(expired) > 0 {
		l.log.Debug().Int("count", len(expired)).Msg("evicted idle quota states")
	}
}
