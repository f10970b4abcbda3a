package server

import (
	"net/http"

	"github.com/emicklei/go-restful/v3"

	"github.com/grump/agentguard/internal/monitor"
)

// ErrorResponse is the JSON body for failed API calls.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse reports liveness.
type HealthResponse struct {
	Status string `json:"status"`
}

// SanitizeRequest carries content through the sanitizers.
type SanitizeRequest struct {
	Content string `json:"content"`
}

// SanitizeResponse returns the cleaned content.
type SanitizeResponse struct {
	Content string `json:"content"`
}

// BlockRequest names why an operator blocked a subject.
type BlockRequest struct {
	Reason string `json:"reason"`
}

// FlagRequest grants a trust flag to a subject.
type FlagRequest struct {
	Flag string `json:"flag"`
}

// CostRequest reports the actual cost of a completed request.
type CostRequest struct {
	Cost int `json:"cost"`
}

func writeError(resp *restful.Response, status int, err error) {
	resp.WriteHeaderAndEntity(status, ErrorResponse{Error: err.Error()})
}

func (s *Server) handleHealth(req *restful.Request, resp *restful.Response) {
	resp.WriteHeaderAndEntity(http.StatusOK, HealthResponse{Status: "ok"})
}

// handleEvaluate accepts an arbitrary JSON request payload, attributes
// it to a subject, and runs the safety checks. The verdict is returned
// with 200 regardless of outcome; the decision lives in the body.
func (s *Server) handleEvaluate(req *restful.Request, resp *restful.Response) {
	var payload map[string]any
	if err := req.ReadEntity(&payload); err != nil {
		writeError(resp, http.StatusBadRequest, err)
		return
	}

	estimatedCost := 0
	if v, ok := payload["estimated_cost"].(float64); ok {
		estimatedCost = int(v)
	}

	v := s.Pipeline().OnRequestStart(payload, estimatedCost)

	s.log.Debug().
		Str("request_id", v.RequestID).
		Str("subject", v.SubjectID).
		Bool("passed", v.Passed).
		Msg("evaluation served")

	resp.WriteHeaderAndEntity(http.StatusOK, v)
}

// handleSanitize strips role-token markers and redacts PII spans.
func (s *Server) handleSanitize(req *restful.Request, resp *restful.Response) {
	var body SanitizeRequest
	if err := req.ReadEntity(&body); err != nil {
		writeError(resp, http.StatusBadRequest, err)
		return
	}

	clean := s.Pipeline().SanitizeContent(s.guardSanitize(body.Content))
	resp.WriteHeaderAndEntity(http.StatusOK, SanitizeResponse{Content: clean})
}

func (s *Server) handleProfile(req *restful.Request, resp *restful.Response) {
	id := req.PathParameter("subject_id")
	resp.WriteHeaderAndEntity(http.StatusOK, s.Pipeline().Store().Profile(id))
}

func (s *Server) handleUsage(req *restful.Request, resp *restful.Response) {
	id := req.PathParameter("subject_id")
	resp.WriteHeaderAndEntity(http.StatusOK, s.Pipeline().Limiter().Usage(id))
}

func (s *Server) handleHighRisk(req *restful.Request, resp *restful.Response) {
	profiles := s.Pipeline().Store().HighRisk()
	if profiles == nil {
		profiles = []monitor.Snapshot{}
	}
	resp.WriteHeaderAndEntity(http.StatusOK, profiles)
}

func (s *Server) handleBlock(req *restful.Request, resp *restful.Response) {
	id := req.PathParameter("subject_id")
	var body BlockRequest
	if err := req.ReadEntity(&body); err != nil {
		writeError(resp, http.StatusBadRequest, err)
		return
	}
	if body.Reason == "" {
		body.Reason = "manual block"
	}

	snap := s.Pipeline().Store().Block(id, body.Reason)
	s.log.Warn().Str("subject", id).Str("reason", body.Reason).Msg("subject blocked by operator")
	resp.WriteHeaderAndEntity(http.StatusOK, snap)
}

func (s *Server) handleUnblock(req *restful.Request, resp *restful.Response) {
	id := req.PathParameter("subject_id")
	snap := s.Pipeline().Store().Unblock(id)
	s.log.Info().Str("subject", id).Msg("subject unblocked by operator")
	resp.WriteHeaderAndEntity(http.StatusOK, snap)
}

func (s *Server) handleFlag(req *restful.Request, resp *restful.Response) {
	id := req.PathParameter("subject_id")
	var body FlagRequest
	if err := req.ReadEntity(&body); err != nil {
		writeError(resp, http.StatusBadRequest, err)
		return
	}
	resp.WriteHeaderAndEntity(http.StatusOK, s.Pipeline().Store().AddPositiveFlag(id, body.Flag))
}

// handleCost commits a completed request's actual cost to the quota.
func (s *Server) handleCost(req *restful.Request, resp *restful.Response) {
	id := req.PathParameter("subject_id")
	var body CostRequest
	if err := req.ReadEntity(&body); err != nil {
		writeError(resp, http.StatusBadRequest, err)
		return
	}
	s.Pipeline().OnRequestEnd(id, body.Cost)
	resp.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStats(req *restful.Request, resp *restful.Response) {
	resp.WriteHeaderAndEntity(http.StatusOK, s.Pipeline().Stats())
}
