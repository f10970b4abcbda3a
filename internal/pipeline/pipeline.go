package pipeline

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/grump/agentguard/internal/alert"
	"github.com/grump/agentguard/internal/audit"
	"github.com/grump/agentguard/internal/filter"
	"github.com/grump/agentguard/internal/injection"
	"github.com/grump/agentguard/internal/monitor"
	"github.com/grump/agentguard/internal/ratelimit"
)

// injectionSampleLimit bounds how much flagged content is forwarded to
// the risk store.
const injectionSampleLimit = 200

// Config toggles which failed checks actually reject. A disabled
// toggle turns that check into an observer: it still runs and records.
type Config struct {
	BlockOnContentViolation bool `yaml:"block_on_content_violation"`
	BlockOnInjection        bool `yaml:"block_on_injection"`
	BlockOnRateLimit        bool `yaml:"block_on_rate_limit"`
	BlockHighRiskUsers      bool `yaml:"block_high_risk_users"`
}

// DefaultConfig enables all enforcement.
func DefaultConfig() Config {
	return Config{
		BlockOnContentViolation: true,
		BlockOnInjection:        true,
		BlockOnRateLimit:        true,
		BlockHighRiskUsers:      true,
	}
}

// Deps are the components a pipeline evaluates with. Filter, Detector,
// Limiter, and Store are required; Audit and Alerts may be nil.
type Deps struct {
	Filter   *filter.Filter
	Detector *injection.Detector
	Limiter  *ratelimit.Limiter
	Store    *monitor.Store
	Audit    *audit.Log
	Alerts   *alert.Dispatcher
	Log      zerolog.Logger

	// ConfigHash ties audit entries back to the config revision that
	// produced them.
	ConfigHash string
}

// Pipeline runs the ordered safety checks: subject standing, quota,
// content, injection. The order is fixed so the cheapest decisive
// rejection wins and every verdict has at most one failure category.
type Pipeline struct {
	cfg  Config
	deps Deps

	totalChecks      atomic.Int64
	passed           atomic.Int64
	blockedUsers     atomic.Int64
	blockedHighRisk  atomic.Int64
	blockedRateLimit atomic.Int64
	blockedContent   atomic.Int64
	blockedInjection atomic.Int64
	checkFaults      atomic.Int64
}

// New builds a pipeline. It returns an error when a required component
// is missing so a half-wired pipeline cannot silently pass traffic.
func New(cfg Config, deps Deps) (*Pipeline, error) {
	if deps.Filter == nil || deps.Detector == nil || deps.Limiter == nil || deps.Store == nil {
		return nil, fmt.Errorf("pipeline: filter, detector, limiter, and store are all required")
	}
	return &Pipeline{cfg: cfg, deps: deps}, nil
}

// guard runs one check body and converts a panic into a warning on the
// verdict. A faulted check contributes nothing to the decision; the
// remaining checks still run.
func (p *Pipeline) guard(name string, warnings *[]string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			p.checkFaults.Add(1)
			p.deps.Log.Error().
				Str("check", name).
				Any("panic", r).
				Msg("safety check faulted")
			*warnings = append(*warnings, fmt.Sprintf("%s check unavailable: %v", name, r))
		}
	}()
	fn()
}

// Evaluate runs all checks against one request and returns the
// combined verdict. It never returns an error and never panics.
func (p *Pipeline) Evaluate(subjectID, content string, estimatedCost int) Verdict {
	p.totalChecks.Add(1)

	v := Verdict{
		RequestID: uuid.NewString(),
		SubjectID: subjectID,
		RiskLevel: monitor.Low.String(),
	}

	var profile *monitor.Snapshot
	p.guard("profile", &v.Warnings, func() {
		snap := p.deps.Store.Profile(subjectID)
		profile = &snap
	})
	if profile != nil {
		v.RiskLevel = profile.LevelName

		if profile.Level == monitor.Blocked {
			p.blockedUsers.Add(1)
			v.FailureCategory = CategoryUserBlocked
			v.FailureReason = "subject is blocked"
			v.ShouldBlock = true
			return p.finish(v)
		}

		if p.cfg.BlockHighRiskUsers && (profile.Level == monitor.High || profile.Level == monitor.Critical) {
			p.blockedHighRisk.Add(1)
			v.FailureCategory = CategoryHighRiskUser
			v.FailureReason = fmt.Sprintf("subject risk level too high: %s", profile.LevelName)
			v.ShouldBlock = true
			v.ShouldEscalate = true
			return p.finish(v)
		}
	}

	var rate *ratelimit.Result
	p.guard("quota", &v.Warnings, func() {
		r := p.deps.Limiter.Check(subjectID, estimatedCost)
		rate = &r
	})
	if rate != nil && !rate.Allowed && p.cfg.BlockOnRateLimit {
		p.blockedRateLimit.Add(1)
		v.RateLimit = rate
		v.FailureCategory = CategoryRateLimited
		v.FailureReason = rate.Reason
		v.ShouldRateLimit = true
		return p.finish(v)
	}

	var contentRes *filter.Result
	p.guard("content", &v.Warnings, func() {
		r := p.deps.Filter.Check(content)
		contentRes = &r
	})
	if contentRes != nil && contentRes.Blocked() && p.cfg.BlockOnContentViolation {
		p.blockedContent.Add(1)
		p.guard("profile", &v.Warnings, func() {
			p.deps.Store.RecordRequest(subjectID, true, contentRes.Message, estimatedCost)
		})
		v.Content = contentRes
		v.FailureCategory = CategoryContentBlocked
		v.FailureReason = contentRes.Message
		v.ShouldBlock = contentRes.HardBlocked()
		v.ShouldWarn = !contentRes.HardBlocked()
		return p.finish(v)
	}

	var injRes *injection.Verdict
	p.guard("injection", &v.Warnings, func() {
		r := p.deps.Detector.Detect(content)
		injRes = &r
	})
	if injRes != nil && injRes.IsInjection && p.cfg.BlockOnInjection {
		p.blockedInjection.Add(1)
		sample := content
		if len(sample) > injectionSampleLimit {
			sample = sample[:injectionSampleLimit]
		}
		p.guard("profile", &v.Warnings, func() {
			p.deps.Store.RecordInjectionAttempt(subjectID, string(injRes.Type), sample)
		})
		v.Injection = injRes
		v.FailureCategory = CategoryInjectionDetected
		v.FailureReason = fmt.Sprintf("injection detected: %s", injRes.Explanation)
		v.ShouldBlock = true
		return p.finish(v)
	}

	// All checks passed (or faulted into warnings).
	p.passed.Add(1)
	p.guard("profile", &v.Warnings, func() {
		p.deps.Store.RecordRequest(subjectID, false, "", estimatedCost)
	})

	v.Passed = true
	v.RateLimit = rate
	if contentRes != nil && len(contentRes.Categories) > 0 {
		v.Content = contentRes
		v.Warnings = append(v.Warnings, contentRes.Message)
	}
	if injRes != nil && injRes.MatchedPattern != "" {
		v.Injection = injRes
	}
	return p.finish(v)
}

// finish records the verdict in the audit log, fires alerts for
// rejections, and logs the outcome.
func (p *Pipeline) finish(v Verdict) Verdict {
	if p.deps.Audit != nil {
		entry := audit.Entry{
			RequestID:  v.RequestID,
			SubjectID:  v.SubjectID,
			Decision:   v.Decision(),
			Category:   string(v.FailureCategory),
			Reason:     v.FailureReason,
			RiskLevel:  v.RiskLevel,
			ConfigHash: p.deps.ConfigHash,
		}
		if v.Content != nil {
			entry.Confidence = v.Content.Confidence
		}
		if v.Injection != nil {
			entry.Confidence = v.Injection.Confidence
		}
		if err := p.deps.Audit.Record(entry); err != nil {
			p.deps.Log.Error().Err(err).Msg("audit record failed")
		}
	}

	if !v.Passed {
		p.deps.Log.Warn().
			Str("request_id", v.RequestID).
			Str("subject", v.SubjectID).
			Str("category", string(v.FailureCategory)).
			Str("reason", v.FailureReason).
			Msg("request rejected")

		if p.deps.Alerts != nil {
			p.deps.Alerts.Dispatch(alert.Event{
				Timestamp:  time.Now().UTC().Format(audit.TimestampFormat),
				RequestID:  v.RequestID,
				SubjectID:  v.SubjectID,
				Decision:   v.Decision(),
				Category:   string(v.FailureCategory),
				Reason:     v.FailureReason,
				RiskLevel:  v.RiskLevel,
				ConfigHash: p.deps.ConfigHash,
			})
		}
	}
	return v
}

// OnRequestStart extracts the subject and content from a raw request
// payload and evaluates them. Unattributable payloads run under the
// anonymous subject.
func (p *Pipeline) OnRequestStart(rawInput any, estimatedCost int) Verdict {
	return p.Evaluate(ExtractSubject(rawInput), ExtractContent(rawInput), estimatedCost)
}

// OnRequestEnd commits the actual cost of a completed request against
// the subject's quota.
func (p *Pipeline) OnRequestEnd(subjectID string, actualCost int) {
	p.deps.Limiter.Record(subjectID, actualCost)
}

// SanitizeContent strips PII spans from content, independent of any
// verdict.
func (p *Pipeline) SanitizeContent(content string) string {
	return filter.SanitizePII(content)
}

// Limiter exposes the quota tracker for usage queries.
func (p *Pipeline) Limiter() *ratelimit.Limiter { return p.deps.Limiter }

// Store exposes the risk profile store for profile queries and
// operator actions.
func (p *Pipeline) Store() *monitor.Store { return p.deps.Store }

// Stats returns the pipeline counters with nested component stats.
func (p *Pipeline) Stats() Stats {
	return Stats{
		TotalChecks:         p.totalChecks.Load(),
		Passed:              p.passed.Load(),
		BlockedUsers:        p.blockedUsers.Load(),
		BlockedHighRisk:     p.blockedHighRisk.Load(),
		BlockedRateLimit:    p.blockedRateLimit.Load(),
		BlockedContent:      p.blockedContent.Load(),
		BlockedInjection:    p.blockedInjection.Load(),
		CheckFaults:         p.checkFaults.Load(),
		ContentFilter:       p.deps.Filter.Stats(),
		InjectionDetections: p.deps.Detector.DetectionCount(),
		Subjects:            p.deps.Store.Stats(),
	}
}
