package server

import (
	"fmt"
	"net/http"
	"time"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	"github.com/emicklei/go-restful/v3"

	"github.com/grump/agentguard/internal/monitor"
	"github.com/grump/agentguard/internal/pipeline"
	"github.com/grump/agentguard/internal/ratelimit"
)

// Container assembles the restful container with routes and filters.
func (s *Server) Container() *restful.Container {
	container := restful.NewContainer()
	container.Filter(s.accessLog)
	container.Filter(s.recoverPanic)

	ws := new(restful.WebService)
	ws.
		Path("/api/v1").
		Consumes(restful.MIME_JSON).
		Produces(restful.MIME_JSON)

	ws.Route(ws.GET("/health").
		To(s.handleHealth).
		Doc("Health check").
		Metadata(restfulspec.KeyOpenAPITags, []string{"health"}).
		Writes(HealthResponse{}).
		Returns(200, "OK", HealthResponse{}))

	ws.Route(ws.POST("/evaluate").
		To(s.handleEvaluate).
		Doc("Run safety checks against a request payload").
		Metadata(restfulspec.KeyOpenAPITags, []string{"evaluate"}).
		Writes(pipeline.Verdict{}).
		Returns(200, "OK", pipeline.Verdict{}).
		Returns(400, "Bad Request", ErrorResponse{}))

	ws.Route(ws.POST("/sanitize").
		To(s.handleSanitize).
		Doc("Strip role markers and redact PII from content").
		Metadata(restfulspec.KeyOpenAPITags, []string{"evaluate"}).
		Reads(SanitizeRequest{}).
		Writes(SanitizeResponse{}).
		Returns(200, "OK", SanitizeResponse{}).
		Returns(400, "Bad Request", ErrorResponse{}))

	ws.Route(ws.GET("/subjects/high-risk").
		To(s.handleHighRisk).
		Doc("List subjects at high risk or above, worst first").
		Metadata(restfulspec.KeyOpenAPITags, []string{"subjects"}).
		Writes([]monitor.Snapshot{}).
		Returns(200, "OK", []monitor.Snapshot{}))

	ws.Route(ws.GET("/subjects/{subject_id}/profile").
		To(s.handleProfile).
		Doc("Risk profile for one subject").
		Metadata(restfulspec.KeyOpenAPITags, []string{"subjects"}).
		Param(ws.PathParameter("subject_id", "Subject identifier").DataType("string")).
		Writes(monitor.Snapshot{}).
		Returns(200, "OK", monitor.Snapshot{}))

	ws.Route(ws.GET("/subjects/{subject_id}/usage").
		To(s.handleUsage).
		Doc("Quota consumption for one subject").
		Metadata(restfulspec.KeyOpenAPITags, []string{"subjects"}).
		Param(ws.PathParameter("subject_id", "Subject identifier").DataType("string")).
		Writes(ratelimit.Usage{}).
		Returns(200, "OK", ratelimit.Usage{}))

	ws.Route(ws.POST("/subjects/{subject_id}/block").
		To(s.handleBlock).
		Doc("Block a subject").
		Metadata(restfulspec.KeyOpenAPITags, []string{"subjects"}).
		Param(ws.PathParameter("subject_id", "Subject identifier").DataType("string")).
		Reads(BlockRequest{}).
		Writes(monitor.Snapshot{}).
		Returns(200, "OK", monitor.Snapshot{}))

	ws.Route(ws.POST("/subjects/{subject_id}/unblock").
		To(s.handleUnblock).
		Doc("Unblock a subject into probation").
		Metadata(restfulspec.KeyOpenAPITags, []string{"subjects"}).
		Param(ws.PathParameter("subject_id", "Subject identifier").DataType("string")).
		Writes(monitor.Snapshot{}).
		Returns(200, "OK", monitor.Snapshot{}))

	ws.Route(ws.POST("/subjects/{subject_id}/flags").
		To(s.handleFlag).
		Doc("Grant a trust flag that lowers risk score").
		Metadata(restfulspec.KeyOpenAPITags, []string{"subjects"}).
		Param(ws.PathParameter("subject_id", "Subject identifier").DataType("string")).
		Reads(FlagRequest{}).
		Writes(monitor.Snapshot{}).
		Returns(200, "OK", monitor.Snapshot{}))

	ws.Route(ws.POST("/subjects/{subject_id}/cost").
		To(s.handleCost).
		Doc("Record the actual cost of a completed request").
		Metadata(restfulspec.KeyOpenAPITags, []string{"subjects"}).
		Param(ws.PathParameter("subject_id", "Subject identifier").DataType("string")).
		Reads(CostRequest{}).
		Returns(204, "No Content", nil))

	ws.Route(ws.GET("/stats").
		To(s.handleStats).
		Doc("Aggregate pipeline counters").
		Metadata(restfulspec.KeyOpenAPITags, []string{"stats"}).
		Writes(pipeline.Stats{}).
		Returns(200, "OK", pipeline.Stats{}))

	container.Add(ws)
	return container
}

func (s *Server) accessLog(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
	start := time.Now()
	chain.ProcessFilter(req, resp)
	s.log.Debug().
		Str("method", req.Request.Method).
		Str("path", req.Request.URL.Path).
		Int("status", resp.StatusCode()).
		Dur("elapsed", time.Since(start)).
		Msg("request served")
}

func (s *Server) recoverPanic(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().
				Any("panic", r).
				Str("path", req.Request.URL.Path).
				Msg("handler panicked")
			writeError(resp, http.StatusInternalServerError, fmt.Errorf("internal error"))
		}
	}()
	chain.ProcessFilter(req, resp)
}
