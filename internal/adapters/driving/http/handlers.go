package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/lexground/internal/core/domain"
	"github.com/custodia-labs/lexground/internal/core/ports/driving"
	"github.com/custodia-labs/lexground/internal/logger"
)

type retrieveRequest struct {
	Query   string         `json:"query" binding:"required"`
	Limit   int            `json:"limit"`
	Filters domain.Filters `json:"filters"`
}

type answerRequest struct {
	Question string               `json:"question" binding:"required"`
	History  []domain.ChatMessage `json:"history"`
	Limit    int                  `json:"limit"`
	Filters  domain.Filters       `json:"filters"`
}

type importRequest struct {
	Provider string `json:"provider" binding:"required"`
	ID       string `json:"id" binding:"required"`
}

type importResponse struct {
	DocumentID string `json:"documentId"`
	Chunks     int    `json:"chunks"`
}

type healthResponse struct {
	Status    string   `json:"status"`
	Version   string   `json:"version,omitempty"`
	Providers []string `json:"providers"`
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		abort(c, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
		return false
	}
	return true
}

func (s *Server) handleHealth(c *gin.Context) {
	resp := healthResponse{Status: "ok", Version: s.cfg.Version, Providers: []string{}}
	if s.ports.Providers != nil {
		resp.Providers = s.ports.Providers.Names()
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleRetrieve(c *gin.Context) {
	var req retrieveRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := s.ports.Retrieval.Retrieve(c.Request.Context(), domain.RetrievalRequest{
		Query:   req.Query,
		Limit:   req.Limit,
		Filters: req.Filters,
	})
	if err != nil {
		abort(c, err)
		return
	}

	if err := setCitations(c, resp.Citations); err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// handleAnswer streams answer tokens as server-sent events. The response
// is committed on the first token so failures before any output still get
// a JSON error with a proper status code.
func (s *Server) handleAnswer(c *gin.Context) {
	if s.ports.Answer == nil {
		abort(c, domain.ErrLLMUnavailable)
		return
	}

	var req answerRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	grounding, err := s.ports.Answer.Prepare(ctx, req.Question, driving.AnswerOptions{
		Limit:   req.Limit,
		Filters: req.Filters,
	})
	if err != nil {
		abort(c, err)
		return
	}

	stream := &eventStream{c: c, citations: grounding.Citations}
	answer, err := s.ports.Answer.Generate(ctx, req.Question, req.History, grounding, func(token string) {
		stream.send("token", token)
	})
	switch {
	case err != nil && !stream.started:
		abort(c, err)
	case err != nil:
		logger.Warn("answer stream failed after %d tokens: %v", stream.sent, err)
		stream.send("error", errorResponse{Error: err.Error()})
	default:
		stream.send("done", gin.H{"degraded": answer.Degraded, "citations": len(answer.Citations)})
	}
}

// eventStream writes server-sent events, sending headers with the first event.
type eventStream struct {
	c         *gin.Context
	citations []domain.CitationEntry
	started   bool
	failed    bool
	sent      int
}

func (e *eventStream) start() {
	e.started = true
	if err := setCitations(e.c, e.citations); err != nil {
		logger.Warn("encode citations header: %v", err)
	}
	e.c.Header("Content-Type", "text/event-stream")
	e.c.Header("Cache-Control", "no-cache")
	e.c.Header("Connection", "keep-alive")
	e.c.Header("X-Accel-Buffering", "no")
	e.c.Status(http.StatusOK)
}

func (e *eventStream) send(event string, payload any) {
	if e.failed {
		return
	}
	if !e.started {
		e.start()
	}

	data, err := json.Marshal(payload)
	if err != nil {
		logger.Warn("encode %s event: %v", event, err)
		return
	}
	if _, err := fmt.Fprintf(e.c.Writer, "event: %s\ndata: %s\n\n", event, data); err != nil {
		e.failed = true
		return
	}
	e.c.Writer.Flush()
	if event == "token" {
		e.sent++
	}
}

func (s *Server) handleImport(c *gin.Context) {
	if s.ports.Ingest == nil {
		abort(c, fmt.Errorf("%w: import is not enabled", domain.ErrNotFound))
		return
	}

	var req importRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := s.ports.Ingest.Import(c.Request.Context(), strings.TrimSpace(req.Provider), strings.TrimSpace(req.ID))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, importResponse{DocumentID: res.DocumentID, Chunks: res.Chunks})
}

func (s *Server) handleProviderHealth(c *gin.Context) {
	health := []domain.ProviderHealth{}
	if s.ports.Providers != nil {
		health = s.ports.Providers.Health(c.Request.Context())
	}
	c.JSON(http.StatusOK, gin.H{"providers": health})
}

func setCitations(c *gin.Context, citations []domain.CitationEntry) error {
	value, err := domain.CitationsHeader(citations)
	if err != nil {
		return fmt.Errorf("encode citations: %w", err)
	}
	c.Header(CitationsHeader, value)
	return nil
}
