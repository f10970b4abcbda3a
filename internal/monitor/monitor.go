package monitor

import (
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// sampleLimit bounds how much flagged content is retained with an
// event.
const sampleLimit = 100

// rapidFireWindow and rapidFireCount define the burst pattern: more
// than rapidFireCount events inside the trailing window.
const (
	rapidFireWindow = time.Minute
	rapidFireCount  = 30
)

// Config tunes the store.
type Config struct {
	// DecayPerHour is how many score points drain per idle hour.
	DecayPerHour float64 `yaml:"decay_per_hour"`
	// AutoBlockThreshold is the score at which a subject is blocked
	// without operator action.
	AutoBlockThreshold float64 `yaml:"auto_block_threshold"`
	// EventCapacity bounds the per-subject event history.
	EventCapacity int `yaml:"event_capacity"`
}

// DefaultConfig returns the standard monitoring settings.
func DefaultConfig() Config {
	return Config{
		DecayPerHour:       0.1,
		AutoBlockThreshold: 100,
		EventCapacity:      100,
	}
}

// Event is one recorded behavior observation.
type Event struct {
	Time    time.Time         `json:"time"`
	Kind    string            `json:"kind"`
	Weight  int               `json:"weight"`
	Details map[string]string `json:"details,omitempty"`
}

// profile is the internal mutable record; callers only ever see
// Snapshot copies.
type profile struct {
	id    string
	level RiskLevel
	score float64
	flags []string

	totalRequests     int64
	blockedRequests   int64
	injectionAttempts int64
	filterViolations  int64

	firstSeen time.Time
	lastSeen  time.Time
	lastDecay time.Time

	events []Event
}

// Snapshot is a caller-facing copy of a profile.
type Snapshot struct {
	SubjectID string    `json:"subject_id"`
	Level     RiskLevel `json:"-"`
	LevelName string    `json:"risk_level"`
	Score     float64   `json:"risk_score"`
	Flags     []string  `json:"flags,omitempty"`

	TotalRequests     int64 `json:"total_requests"`
	BlockedRequests   int64 `json:"blocked_requests"`
	InjectionAttempts int64 `json:"injection_attempts"`
	FilterViolations  int64 `json:"filter_violations"`

	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`

	EventCount int `json:"event_count"`
}

// Stats aggregates across all tracked subjects.
type Stats struct {
	TotalSubjects    int            `json:"total_subjects"`
	RiskDistribution map[string]int `json:"risk_distribution"`
	TotalRequests    int64          `json:"total_requests"`
	TotalBlocked     int64          `json:"total_blocked"`
	TotalInjections  int64          `json:"total_injections"`
	BlockRate        float64        `json:"block_rate"`
}

// Store keeps per-subject risk profiles: a score fed by weighted
// behavior events, drained by linear decay, and classified into levels.
// Profiles are in-memory only. Safe for concurrent use.
type Store struct {
	cfg Config
	log zerolog.Logger

	mu       sync.Mutex
	profiles map[string]*profile

	now func() time.Time
}

// NewStore builds an empty store.
func NewStore(cfg Config, log zerolog.Logger) *Store {
	if cfg.EventCapacity <= 0 {
		cfg.EventCapacity = DefaultConfig().EventCapacity
	}
	return &Store{
		cfg:      cfg,
		log:      log,
		profiles: make(map[string]*profile),
		now:      time.Now,
	}
}

// get returns the profile, creating it on first sight, with decay
// already applied. Called with the lock held.
func (s *Store) get(id string, now time.Time) *profile {
	p, ok := s.profiles[id]
	if !ok {
		p = &profile{
			id:        id,
			firstSeen: now,
			lastSeen:  now,
			lastDecay: now,
		}
		s.profiles[id] = p
	}
	s.decay(p, now)
	return p
}

// decay drains the score for the time since the last decay point.
// Blocked profiles keep their score but the decay point still moves,
// so an unblock does not trigger a retroactive drain.
func (s *Store) decay(p *profile, now time.Time) {
	if p.level != Blocked {
		hours := now.Sub(p.lastDecay).Hours()
		if hours > 0 {
			p.score = max(0, p.score-hours*s.cfg.DecayPerHour)
		}
	}
	p.lastDecay = now
}

// reclassify maps score to level. Blocked is sticky until Unblock;
// crossing the auto-block threshold forces it.
func (s *Store) reclassify(p *profile) {
	if p.level == Blocked {
		return
	}
	if p.score >= s.cfg.AutoBlockThreshold {
		p.level = Blocked
		s.log.Warn().
			Str("subject", p.id).
			Float64("score", p.score).
			Msg("subject auto-blocked")
		return
	}
	switch {
	case p.score >= criticalThreshold:
		p.level = Critical
	case p.score >= highThreshold:
		p.level = High
	case p.score >= mediumThreshold:
		p.level = Medium
	default:
		p.level = Low
	}
}

func (p *profile) addEvent(now time.Time, kind string, weight int, capacity int, details map[string]string) {
	p.events = append(p.events, Event{Time: now, Kind: kind, Weight: weight, Details: details})
	if len(p.events) > capacity {
		p.events = p.events[len(p.events)-capacity:]
	}
}

func (p *profile) recentEventCount(now time.Time, window time.Duration) int {
	cutoff := now.Add(-window)
	n := 0
	for i := len(p.events) - 1; i >= 0; i-- {
		if !p.events[i].Time.After(cutoff) {
			break
		}
		n++
	}
	return n
}

func (p *profile) hasFlag(flag string) bool {
	for _, f := range p.flags {
		if f == flag {
			return true
		}
	}
	return false
}

func (p *profile) snapshot() Snapshot {
	return Snapshot{
		SubjectID:         p.id,
		Level:             p.level,
		LevelName:         p.level.String(),
		Score:             p.score,
		Flags:             append([]string(nil), p.flags...),
		TotalRequests:     p.totalRequests,
		BlockedRequests:   p.blockedRequests,
		InjectionAttempts: p.injectionAttempts,
		FilterViolations:  p.filterViolations,
		FirstSeen:         p.firstSeen,
		LastSeen:          p.lastSeen,
		EventCount:        len(p.events),
	}
}

// Profile returns the subject's current state, creating a fresh
// low-risk profile on first sight.
func (s *Store) Profile(id string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	p := s.get(id, now)
	s.reclassify(p)
	return p.snapshot()
}

// RecordRequest records one evaluated request. Blocked requests add
// score and may set the repeated-blocked-content flag; a burst of any
// events inside the rapid-fire window adds score on every occurrence
// but flags only once.
func (s *Store) RecordRequest(id string, wasBlocked bool, blockReason string, cost int) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	p := s.get(id, now)

	p.totalRequests++
	p.lastSeen = now

	if wasBlocked {
		p.blockedRequests++
		p.filterViolations++
		p.addEvent(now, "blocked_content", weightBlockedContent, s.cfg.EventCapacity,
			map[string]string{"reason": blockReason})
		p.score += weightBlockedContent
		if p.blockedRequests >= 3 && !p.hasFlag(FlagRepeatedBlockedContent) {
			p.flags = append(p.flags, FlagRepeatedBlockedContent)
		}
	} else {
		p.addEvent(now, "request", 0, s.cfg.EventCapacity,
			map[string]string{"cost": strconv.Itoa(cost)})
	}

	if p.recentEventCount(now, rapidFireWindow) > rapidFireCount {
		if !p.hasFlag(FlagRapidFire) {
			p.flags = append(p.flags, FlagRapidFire)
		}
		p.addEvent(now, "rapid_fire", weightRapidFire, s.cfg.EventCapacity, nil)
		p.score += weightRapidFire
	}

	s.reclassify(p)
	return p.snapshot()
}

// RecordInjectionAttempt records a flagged injection. The content
// sample is truncated before storage.
func (s *Store) RecordInjectionAttempt(id, injectionType, sample string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	p := s.get(id, now)

	if len(sample) > sampleLimit {
		sample = sample[:sampleLimit]
	}
	p.injectionAttempts++
	p.lastSeen = now
	p.addEvent(now, "injection_attempt", weightInjection, s.cfg.EventCapacity,
		map[string]string{"type": injectionType, "sample": sample})
	p.score += weightInjection

	if p.injectionAttempts >= 2 && !p.hasFlag(FlagInjectionAttempts) {
		p.flags = append(p.flags, FlagInjectionAttempts)
	}

	s.reclassify(p)
	s.log.Warn().
		Str("subject", id).
		Str("type", injectionType).
		Int64("attempts", p.injectionAttempts).
		Float64("score", p.score).
		Msg("injection attempt recorded")
	return p.snapshot()
}

// RecordCircumvention records a filter evasion attempt. The flag is
// set on the first occurrence.
func (s *Store) RecordCircumvention(id string, details map[string]string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	p := s.get(id, now)

	p.lastSeen = now
	p.addEvent(now, "filter_circumvention", weightCircumvention, s.cfg.EventCapacity, details)
	p.score += weightCircumvention

	if !p.hasFlag(FlagCircumvention) {
		p.flags = append(p.flags, FlagCircumvention)
	}

	s.reclassify(p)
	s.log.Warn().
		Str("subject", id).
		Float64("score", p.score).
		Msg("filter circumvention recorded")
	return p.snapshot()
}

// AddPositiveFlag attaches a trust flag and shaves score. Only the
// known positive flags are accepted; repeats do not stack.
func (s *Store) AddPositiveFlag(id, flag string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	p := s.get(id, now)

	switch flag {
	case FlagVerified, FlagLongStanding, FlagGoodStanding:
		if !p.hasFlag(flag) {
			p.flags = append(p.flags, flag)
			p.score = max(0, p.score-10)
		}
	}

	s.reclassify(p)
	return p.snapshot()
}

// Block forces the subject to Blocked until Unblock.
func (s *Store) Block(id, reason string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	p := s.get(id, now)

	p.level = Blocked
	p.addEvent(now, "blocked", 10, s.cfg.EventCapacity, map[string]string{"reason": reason})

	s.log.Warn().
		Str("subject", id).
		Str("reason", reason).
		Msg("subject blocked")
	return p.snapshot()
}

// Unblock releases a blocked subject on probation: level Medium with
// the score pinned at the medium threshold, not a clean slate.
func (s *Store) Unblock(id string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	p := s.get(id, now)

	p.level = Medium
	p.score = mediumThreshold
	p.lastDecay = now
	p.addEvent(now, "unblocked", 0, s.cfg.EventCapacity, nil)

	s.log.Info().Str("subject", id).Msg("subject unblocked")
	return p.snapshot()
}

// HighRisk returns all subjects at High or above, worst first.
func (s *Store) HighRisk() []Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var out []Snapshot
	for _, p := range s.profiles {
		s.decay(p, now)
		s.reclassify(p)
		if p.level >= High {
			out = append(out, p.snapshot())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// Stats aggregates counters across every tracked subject.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	st := Stats{RiskDistribution: make(map[string]int)}
	for _, p := range s.profiles {
		s.decay(p, now)
		s.reclassify(p)
		st.TotalSubjects++
		st.RiskDistribution[p.level.String()]++
		st.TotalRequests += p.totalRequests
		st.TotalBlocked += p.blockedRequests
		st.TotalInjections += p.injectionAttempts
	}
	if st.TotalRequests > 0 {
		st.BlockRate = float64(st.TotalBlocked) / float64(st.TotalRequests)
	}
	return st
}
