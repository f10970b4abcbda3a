package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/grump/agentguard/internal/pipeline"
)

// --- Input/Output types ---

// EvaluateInput defines parameters for the agentguard_evaluate tool.
type EvaluateInput struct {
	SubjectID     string `json:"subject_id,omitempty" jsonschema:"subject the content is attributed to, defaults to anonymous"`
	Content       string `json:"content" jsonschema:"content to evaluate"`
	EstimatedCost int    `json:"estimated_cost,omitempty" jsonschema:"estimated cost of the request in tokens"`
}

// EvaluateOutput carries the verdict back to the agent host.
type EvaluateOutput struct {
	RequestID       string   `json:"request_id"`
	Passed          bool     `json:"passed"`
	Decision        string   `json:"decision"`
	FailureCategory string   `json:"failure_category,omitempty"`
	FailureReason   string   `json:"failure_reason,omitempty"`
	RiskLevel       string   `json:"risk_level"`
	Warnings        []string `json:"warnings,omitempty"`
}

// SanitizeInput defines parameters for the agentguard_sanitize tool.
type SanitizeInput struct {
	Content string `json:"content" jsonschema:"content to sanitize"`
}

// SanitizeOutput returns the cleaned content.
type SanitizeOutput struct {
	Content string `json:"content"`
}

// SubjectInput names a subject for profile and usage lookups.
type SubjectInput struct {
	SubjectID string `json:"subject_id" jsonschema:"subject identifier"`
}

// ProfileOutput summarizes a subject's risk standing.
type ProfileOutput struct {
	SubjectID         string   `json:"subject_id"`
	RiskLevel         string   `json:"risk_level"`
	RiskScore         float64  `json:"risk_score"`
	Flags             []string `json:"flags,omitempty"`
	TotalRequests     int64    `json:"total_requests"`
	BlockedRequests   int64    `json:"blocked_requests"`
	InjectionAttempts int64    `json:"injection_attempts"`
}

// UsageOutput summarizes quota consumption.
type UsageOutput struct {
	RequestsMinute int   `json:"requests_minute"`
	RequestsHour   int   `json:"requests_hour"`
	RequestsDay    int   `json:"requests_day"`
	CostMinute     int   `json:"cost_minute"`
	CostHour       int   `json:"cost_hour"`
	CostDay        int   `json:"cost_day"`
	Rejections     int64 `json:"rejections"`
	InCooldown     bool  `json:"in_cooldown"`
}

// BlockInput defines parameters for the agentguard_block tool.
type BlockInput struct {
	SubjectID string `json:"subject_id" jsonschema:"subject identifier"`
	Reason    string `json:"reason,omitempty" jsonschema:"why the subject is being blocked"`
}

// StandingOutput reports a subject's level after an operator action.
type StandingOutput struct {
	SubjectID string  `json:"subject_id"`
	RiskLevel string  `json:"risk_level"`
	RiskScore float64 `json:"risk_score"`
}

// --- Handlers ---

func (s *Server) handleEvaluate(ctx context.Context, req *mcpsdk.CallToolRequest, input EvaluateInput) (*mcpsdk.CallToolResult, EvaluateOutput, error) {
	subject := input.SubjectID
	if subject == "" {
		subject = pipeline.AnonymousSubject
	}

	v := s.deps.Pipeline.Evaluate(subject, input.Content, input.EstimatedCost)

	out := EvaluateOutput{
		RequestID:       v.RequestID,
		Passed:          v.Passed,
		Decision:        v.Decision(),
		FailureCategory: string(v.FailureCategory),
		FailureReason:   v.FailureReason,
		RiskLevel:       v.RiskLevel,
		Warnings:        v.Warnings,
	}
	if !v.Passed {
		return &mcpsdk.CallToolResult{IsError: true}, out, nil
	}
	return nil, out, nil
}

func (s *Server) handleSanitize(ctx context.Context, req *mcpsdk.CallToolRequest, input SanitizeInput) (*mcpsdk.CallToolResult, SanitizeOutput, error) {
	clean := s.deps.Pipeline.SanitizeContent(s.deps.Guard.Sanitize(input.Content))
	return nil, SanitizeOutput{Content: clean}, nil
}

func (s *Server) handleProfile(ctx context.Context, req *mcpsdk.CallToolRequest, input SubjectInput) (*mcpsdk.CallToolResult, ProfileOutput, error) {
	snap := s.deps.Store.Profile(input.SubjectID)
	return nil, ProfileOutput{
		SubjectID:         snap.SubjectID,
		RiskLevel:         snap.LevelName,
		RiskScore:         snap.Score,
		Flags:             snap.Flags,
		TotalRequests:     snap.TotalRequests,
		BlockedRequests:   snap.BlockedRequests,
		InjectionAttempts: snap.InjectionAttempts,
	}, nil
}

func (s *Server) handleUsage(ctx context.Context, req *mcpsdk.CallToolRequest, input SubjectInput) (*mcpsdk.CallToolResult, UsageOutput, error) {
	u := s.deps.Limiter.Usage(input.SubjectID)
	return nil, UsageOutput{
		RequestsMinute: u.Requests.Minute,
		RequestsHour:   u.Requests.Hour,
		RequestsDay:    u.Requests.Day,
		CostMinute:     u.Cost.Minute,
		CostHour:       u.Cost.Hour,
		CostDay:        u.Cost.Day,
		Rejections:     u.Rejections,
		InCooldown:     u.InCooldown,
	}, nil
}

func (s *Server) handleBlock(ctx context.Context, req *mcpsdk.CallToolRequest, input BlockInput) (*mcpsdk.CallToolResult, StandingOutput, error) {
	reason := input.Reason
	if reason == "" {
		reason = "manual block"
	}
	snap := s.deps.Store.Block(input.SubjectID, reason)
	s.log.Warn().Str("subject", input.SubjectID).Str("reason", reason).Msg("subject blocked via MCP")
	return nil, StandingOutput{SubjectID: snap.SubjectID, RiskLevel: snap.LevelName, RiskScore: snap.Score}, nil
}

func (s *Server) handleUnblock(ctx context.Context, req *mcpsdk.CallToolRequest, input SubjectInput) (*mcpsdk.CallToolResult, StandingOutput, error) {
	snap := s.deps.Store.Unblock(input.SubjectID)
	s.log.Info().Str("subject", input.SubjectID).Msg("subject unblocked via MCP")
	return nil, StandingOutput{SubjectID: snap.SubjectID, RiskLevel: snap.LevelName, RiskScore: snap.Score}, nil
}
