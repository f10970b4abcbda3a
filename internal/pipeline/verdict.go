package pipeline

import (
	"github.com/grump/agentguard/internal/filter"
	"github.com/grump/agentguard/internal/injection"
	"github.com/grump/agentguard/internal/monitor"
	"github.com/grump/agentguard/internal/ratelimit"
)

// Category names why a verdict failed. Checks run in a fixed order, so
// at most one category applies per verdict.
type Category string

const (
	CategoryUserBlocked       Category = "user_blocked"
	CategoryHighRiskUser      Category = "high_risk_user"
	CategoryRateLimited       Category = "rate_limited"
	CategoryContentBlocked    Category = "content_blocked"
	CategoryInjectionDetected Category = "injection_detected"
)

// Verdict is the combined outcome of one evaluation. A failed verdict
// is a value, not an error: callers branch on Passed and the advice
// flags, and an evaluation that could not run a check still returns a
// verdict with the gap listed in Warnings.
type Verdict struct {
	RequestID string `json:"request_id"`
	SubjectID string `json:"subject_id"`
	Passed    bool   `json:"passed"`

	FailureCategory Category `json:"failure_category,omitempty"`
	FailureReason   string   `json:"failure_reason,omitempty"`

	// Advice for the caller.
	ShouldBlock     bool `json:"should_block"`
	ShouldWarn      bool `json:"should_warn"`
	ShouldRateLimit bool `json:"should_rate_limit"`
	ShouldEscalate  bool `json:"should_escalate"`

	RiskLevel string `json:"risk_level"`

	// Component results, present when the corresponding check ran and
	// had something to say.
	Content   *filter.Result     `json:"content,omitempty"`
	Injection *injection.Verdict `json:"injection,omitempty"`
	RateLimit *ratelimit.Result  `json:"rate_limit,omitempty"`

	// Warnings carry non-fatal findings: Warn-level content matches on
	// a pass, and checks that faulted and were skipped.
	Warnings []string `json:"warnings,omitempty"`
}

// Decision maps the verdict onto the audit decision vocabulary.
func (v Verdict) Decision() string {
	switch {
	case !v.Passed:
		return "deny"
	case len(v.Warnings) > 0:
		return "warn"
	default:
		return "allow"
	}
}

// Stats aggregates pipeline counters with nested component stats.
type Stats struct {
	TotalChecks      int64 `json:"total_checks"`
	Passed           int64 `json:"passed"`
	BlockedUsers     int64 `json:"blocked_users"`
	BlockedHighRisk  int64 `json:"blocked_high_risk"`
	BlockedRateLimit int64 `json:"blocked_rate_limit"`
	BlockedContent   int64 `json:"blocked_content"`
	BlockedInjection int64 `json:"blocked_injection"`
	CheckFaults      int64 `json:"check_faults"`

	ContentFilter       filter.Stats  `json:"content_filter"`
	InjectionDetections int64         `json:"injection_detections"`
	Subjects            monitor.Stats `json:"subjects"`
}
