package agentguard

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/grump/agentguard/internal/pipeline"
)

// maxBodyBytes bounds how much of a request body the middleware will
// buffer for evaluation.
const maxBodyBytes = 1 << 20

// Middleware returns an http.Handler that evaluates the safety checks
// on each JSON request body before passing to the next handler.
// Rejected requests receive a 403 (or 429 for quota hits) with a JSON
// body. Non-JSON and empty bodies pass through untouched.
func (c *Client) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload, body, ok := readPayload(r)
		if body != nil {
			r.Body = io.NopCloser(bytes.NewReader(body))
		}
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		v := c.deps.Pipeline.OnRequestStart(payload, 0)
		if !v.Passed {
			status := http.StatusForbidden
			if v.FailureCategory == pipeline.CategoryRateLimited {
				status = http.StatusTooManyRequests
				if v.RateLimit != nil && v.RateLimit.RetryAfter > 0 {
					w.Header().Set("Retry-After", v.RateLimit.RetryAfter.String())
				}
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			json.NewEncoder(w).Encode(map[string]any{
				"blocked":    true,
				"request_id": v.RequestID,
				"category":   string(v.FailureCategory),
				"reason":     v.FailureReason,
				"risk_level": v.RiskLevel,
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// readPayload buffers the body and decodes it as a JSON object. The
// raw bytes come back so the caller can restore r.Body either way.
func readPayload(r *http.Request) (map[string]any, []byte, bool) {
	if r.Body == nil || r.ContentLength == 0 {
		return nil, nil, false
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, body, false
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, body, false
	}
	return payload, body, true
}
