package agentguard

import (
	"fmt"

	"github.com/grump/agentguard/internal/pipeline"
)

// Decision is the safety enforcement outcome.
type Decision string

const (
	Allow Decision = "allow"
	Warn  Decision = "warn"
	Deny  Decision = "deny"
)

// Request describes content an agent wants to send.
type Request struct {
	SubjectID     string // who the content is attributed to; empty means anonymous
	Content       string // the content under evaluation
	EstimatedCost int    // optional cost estimate for quota accounting
}

// Result is a safety evaluation outcome.
type Result struct {
	RequestID string
	Decision  Decision
	Category  string
	Reason    string
	RiskLevel string
	Warnings  []string

	// RetryAfter is non-zero advice when the rejection was a quota hit.
	RetryAfter string
}

// Allowed returns true if the decision permits the request.
func (r Result) Allowed() bool {
	return r.Decision == Allow || r.Decision == Warn
}

// BlockedError is returned by wrapped tools when a request is rejected.
type BlockedError struct {
	Request Request
	Result  Result
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("agentguard blocked (%s): %s", e.Result.Category, e.Result.Reason)
}

// toResult maps an internal verdict to an SDK Result.
func toResult(v pipeline.Verdict) Result {
	r := Result{
		RequestID: v.RequestID,
		Decision:  Decision(v.Decision()),
		Category:  string(v.FailureCategory),
		Reason:    v.FailureReason,
		RiskLevel: v.RiskLevel,
		Warnings:  v.Warnings,
	}
	if v.RateLimit != nil && v.RateLimit.RetryAfter > 0 {
		r.RetryAfter = v.RateLimit.RetryAfter.String()
	}
	return r
}
