package ratelimit

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(cfg Config) (*Limiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	l := New(cfg, zerolog.Nop())
	l.now = clock.now
	l.lastCleanup = clock.t
	return l, clock
}

func TestCheckAllowsUnderLimit(t *testing.T) {
	l, _ := newTestLimiter(DefaultConfig())
	r := l.Check("alice", 100)

	if !r.Allowed {
		t.Fatalf("expected allow, got %+v", r)
	}
	if r.RemainingRequests != 60 {
		t.Errorf("expected 60 remaining requests, got %d", r.RemainingRequests)
	}
}

func TestCheckDoesNotConsume(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RequestsPerMinute = 2
	cfg.BurstMultiplier = 1.0
	l, _ := newTestLimiter(cfg)

	// Ten checks without a single record must all pass.
	for i := 0; i < 10; i++ {
		if r := l.Check("alice", 0); !r.Allowed {
			t.Fatalf("check %d denied: %s", i, r.Reason)
		}
	}
}

func TestCheckMinuteRequestLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RequestsPerMinute = 2
	cfg.BurstMultiplier = 1.0
	l, _ := newTestLimiter(cfg)

	for i := 0; i < 2; i++ {
		if r := l.Check("alice", 0); !r.Allowed {
			t.Fatalf("request %d denied: %s", i, r.Reason)
		}
		l.Record("alice", 0)
	}

	r := l.Check("alice", 0)
	if r.Allowed {
		t.Fatal("expected denial on third request")
	}
	if !strings.Contains(r.Reason, "minute") {
		t.Errorf("reason must name the window: %q", r.Reason)
	}
	if r.RetryAfter <= 0 || r.RetryAfter > time.Minute {
		t.Errorf("unexpected retry-after: %v", r.RetryAfter)
	}
}

func TestCheckBurstMultiplier(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RequestsPerMinute = 2
	cfg.BurstMultiplier = 2.0
	l, _ := newTestLimiter(cfg)

	// Burst doubles the minute ceiling to 4.
	for i := 0; i < 4; i++ {
		if r := l.Check("alice", 0); !r.Allowed {
			t.Fatalf("request %d denied: %s", i, r.Reason)
		}
		l.Record("alice", 0)
	}
	if r := l.Check("alice", 0); r.Allowed {
		t.Fatal("expected denial past burst ceiling")
	}
}

func TestCheckWindowRollRestoresQuota(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RequestsPerMinute = 1
	cfg.BurstMultiplier = 1.0
	l, clock := newTestLimiter(cfg)

	l.Check("alice", 0)
	l.Record("alice", 0)
	if r := l.Check("alice", 0); r.Allowed {
		t.Fatal("expected denial before window roll")
	}

	clock.advance(61 * time.Second)
	if r := l.Check("alice", 0); !r.Allowed {
		t.Fatalf("expected allow after window roll: %s", r.Reason)
	}
}

func TestCheckCostLimitIncludesEstimate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CostPerMinute = 100
	cfg.BurstMultiplier = 1.0
	l, _ := newTestLimiter(cfg)

	// Equal to the limit passes; one over is denied.
	if r := l.Check("alice", 100); !r.Allowed {
		t.Fatalf("estimate equal to limit denied: %s", r.Reason)
	}
	r := l.Check("alice", 101)
	if r.Allowed {
		t.Fatal("expected denial for estimate over limit")
	}
	if !strings.Contains(r.Reason, "cost per minute") {
		t.Errorf("unexpected reason: %q", r.Reason)
	}
}

func TestCheckDayCostLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CostPerMinute = 1000
	cfg.CostPerHour = 10000
	cfg.CostPerDay = 1000
	cfg.BurstMultiplier = 1.0
	l, clock := newTestLimiter(cfg)

	// Spread spend across hours so minute and hour windows keep
	// rolling while the day window accumulates past its limit.
	for i := 0; i < 3; i++ {
		l.Check("alice", 900)
		l.Record("alice", 900)
		clock.advance(time.Hour + time.Second)
	}

	r := l.Check("alice", 1)
	if r.Allowed {
		t.Fatalf("day cost 2700 over limit 1000 allowed: %+v", r)
	}
	if !strings.Contains(r.Reason, "cost per day") {
		t.Errorf("unexpected reason: %q", r.Reason)
	}
	if r.RemainingCost != 0 {
		t.Errorf("expected zero remaining cost, got %d", r.RemainingCost)
	}
}

func TestCheckRemainingNeverNegative(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RequestsPerMinute = 2
	cfg.CostPerMinute = 100
	cfg.BurstMultiplier = 2.0
	l, _ := newTestLimiter(cfg)

	// Burst admits up to 4 requests and 200 cost in the minute, past
	// the base limits the headroom math subtracts from.
	for i := 0; i < 3; i++ {
		l.Check("alice", 50)
		l.Record("alice", 50)
	}

	r := l.Check("alice", 0)
	if !r.Allowed {
		t.Fatalf("expected allow within burst: %s", r.Reason)
	}
	if r.RemainingRequests != 0 {
		t.Errorf("expected clamped remaining requests, got %d", r.RemainingRequests)
	}
	if r.RemainingCost != 0 {
		t.Errorf("expected clamped remaining cost, got %d", r.RemainingCost)
	}
}

func TestCheckHourLimitIgnoresBurst(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RequestsPerMinute = 1000
	cfg.RequestsPerHour = 3
	cfg.BurstMultiplier = 2.0
	l, clock := newTestLimiter(cfg)

	for i := 0; i < 3; i++ {
		l.Check("alice", 0)
		l.Record("alice", 0)
		clock.advance(61 * time.Second)
	}

	r := l.Check("alice", 0)
	if r.Allowed {
		t.Fatal("expected hour limit denial")
	}
	if !strings.Contains(r.Reason, "hour") {
		t.Errorf("unexpected reason: %q", r.Reason)
	}
}

func TestCheckCooldown(t *testing.T) {
	l, clock := newTestLimiter(DefaultConfig())
	l.SetCooldown("alice", 30*time.Second)

	r := l.Check("alice", 0)
	if r.Allowed {
		t.Fatal("expected cooldown denial")
	}
	if !strings.Contains(r.Reason, "cooldown") {
		t.Errorf("unexpected reason: %q", r.Reason)
	}
	if r.RetryAfter != 30*time.Second {
		t.Errorf("expected 30s retry-after, got %v", r.RetryAfter)
	}

	clock.advance(31 * time.Second)
	if r := l.Check("alice", 0); !r.Allowed {
		t.Fatalf("expected allow after cooldown: %s", r.Reason)
	}
}

func TestSetCooldownDefaultDuration(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Cooldown = 90 * time.Second
	l, _ := newTestLimiter(cfg)

	l.SetCooldown("alice", 0)
	r := l.Check("alice", 0)
	if r.RetryAfter != 90*time.Second {
		t.Errorf("expected default cooldown 90s, got %v", r.RetryAfter)
	}
}

func TestRecordUnknownSubjectNoOp(t *testing.T) {
	l, _ := newTestLimiter(DefaultConfig())
	l.Record("ghost", 500)

	u := l.Usage("ghost")
	if u.Requests.Total != 0 || u.Cost.Total != 0 {
		t.Errorf("record for unknown subject created state: %+v", u)
	}
}

func TestDisabledLimiter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = false
	cfg.RequestsPerMinute = 0
	l, _ := newTestLimiter(cfg)

	for i := 0; i < 5; i++ {
		if r := l.Check("alice", 1<<30); !r.Allowed {
			t.Fatal("disabled limiter denied a request")
		}
	}
	if u := l.Usage("alice"); u.Requests.Total != 0 {
		t.Errorf("disabled limiter touched state: %+v", u)
	}
}

func TestUsageSnapshot(t *testing.T) {
	l, _ := newTestLimiter(DefaultConfig())
	l.Check("alice", 0)
	l.Record("alice", 250)
	l.Record("alice", 150)

	u := l.Usage("alice")
	if u.Requests.Minute != 2 || u.Requests.Total != 2 {
		t.Errorf("unexpected request counts: %+v", u.Requests)
	}
	if u.Cost.Day != 400 || u.Cost.Total != 400 {
		t.Errorf("unexpected cost counts: %+v", u.Cost)
	}
	if u.InCooldown {
		t.Error("unexpected cooldown")
	}
}

func TestRejectionCounter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RequestsPerMinute = 1
	cfg.BurstMultiplier = 1.0
	l, _ := newTestLimiter(cfg)

	l.Check("alice", 0)
	l.Record("alice", 0)
	l.Check("alice", 0)
	l.Check("alice", 0)

	if u := l.Usage("alice"); u.Rejections != 2 {
		t.Errorf("expected 2 rejections, got %d", u.Rejections)
	}
}

func TestCleanupEvictsIdleStates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CleanupInterval = time.Minute
	l, clock := newTestLimiter(cfg)

	l.Check("idle", 0)
	clock.advance(25 * time.Hour)
	// Check on another subject triggers the sweep.
	l.Check("active", 0)

	l.mu.Lock()
	_, ok := l.states["idle"]
	l.mu.Unlock()
	if ok {
		t.Error("idle state survived cleanup")
	}
}

func TestCleanupKeepsCooldownStates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CleanupInterval = time.Minute
	l, clock := newTestLimiter(cfg)

	l.Check("parked", 0)
	l.SetCooldown("parked", 48*time.Hour)
	clock.advance(25 * time.Hour)
	l.Check("active", 0)

	l.mu.Lock()
	_, ok := l.states["parked"]
	l.mu.Unlock()
	if !ok {
		t.Error("state in cooldown was evicted")
	}
}

func TestSubjectsAreIndependent(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RequestsPerMinute = 1
	cfg.BurstMultiplier = 1.0
	l, _ := newTestLimiter(cfg)

	l.Check("alice", 0)
	l.Record("alice", 0)
	if r := l.Check("alice", 0); r.Allowed {
		t.Fatal("expected alice denied")
	}
	if r := l.Check("bob", 0); !r.Allowed {
		t.Fatalf("bob affected by alice's quota: %s", r.Reason)
	}
}

func BenchmarkCheck(b *testing.B) {
	l := New(DefaultConfig(), zerolog.Nop())
	for i := 0; i < b.N; i++ {
		l.Check(fmt.Sprintf("subject-%d", i%100), 100)
	}
}
