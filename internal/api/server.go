// Package api serves the JSON HTTP API and the SSE stream over the
// monitor's history and event bus.
package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"pumpfun-radar/internal/domain"
	"pumpfun-radar/internal/monitor"
	"pumpfun-radar/internal/observability"
	"pumpfun-radar/internal/solana"
)

// Server exposes the monitor over HTTP.
type Server struct {
	monitor     *monitor.Monitor
	logger      *log.Logger
	subscribers atomic.Int64
}

// Options wires the server's dependencies.
type Options struct {
	Monitor *monitor.Monitor
	Logger  *log.Logger
}

// NewServer creates the HTTP layer around a monitor.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		monitor: opts.Monitor,
		logger:  logger,
	}
}

// Routes builds the request mux.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /tokens", s.handleTokens)
	mux.HandleFunc("GET /tokens/{address}", s.handleToken)
	mux.HandleFunc("GET /stats", s.handleStats)
	mux.HandleFunc("POST /analyze", s.handleAnalyze)
	mux.HandleFunc("GET /stream", s.handleStream)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", observability.Handler())

	return mux
}

// envelope is the uniform response body.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Printf("[api] encode response: %v", err)
	}
}

func (s *Server) ok(w http.ResponseWriter, data any) {
	s.writeJSON(w, http.StatusOK, envelope{Success: true, Data: data})
}

func (s *Server) fail(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, envelope{Success: false, Error: msg})
}

// tokensResponse is the GET /tokens payload.
type tokensResponse struct {
	Tokens      []*domain.TokenRecord `json:"tokens"`
	Stats       domain.MonitorStats   `json:"stats"`
	Count       int                   `json:"count"`
	IsConnected bool                  `json:"isConnected"`
}

// handleTokens returns the bounded history. The first call starts the
// monitor if nothing else has.
func (s *Server) handleTokens(w http.ResponseWriter, r *http.Request) {
	if !s.monitor.Running() {
		s.monitor.Start()
	}

	passedOnly := r.URL.Query().Get("passed") == "true"
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.fail(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	tokens := s.monitor.History(limit, passedOnly)
	if tokens == nil {
		tokens = []*domain.TokenRecord{}
	}
	s.ok(w, tokensResponse{
		Tokens:      tokens,
		Stats:       s.monitor.Stats(),
		Count:       len(tokens),
		IsConnected: s.monitor.Running(),
	})
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	record := s.monitor.Get(r.PathValue("address"))
	if record == nil {
		s.fail(w, http.StatusNotFound, "token not found")
		return
	}
	s.ok(w, record)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.ok(w, s.monitor.Stats())
}

// analyzeRequest is the POST /analyze body.
type analyzeRequest struct {
	TokenAddress string `json:"tokenAddress"`
	Creator      string `json:"creator,omitempty"`
}

// handleAnalyze runs one on-demand full enrichment for an arbitrary mint.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !solana.ValidAddress(req.TokenAddress) {
		s.fail(w, http.StatusBadRequest, "invalid token address")
		return
	}
	if req.Creator != "" && !solana.ValidAddress(req.Creator) {
		s.fail(w, http.StatusBadRequest, "invalid creator address")
		return
	}

	event := domain.MigrationEvent{
		Mint:      req.TokenAddress,
		Creator:   req.Creator,
		Signature: "manual",
		Timestamp: time.Now().UnixMilli(),
	}
	record := s.monitor.Analyze(r.Context(), event)
	if record == nil {
		s.fail(w, http.StatusInternalServerError, "analysis failed")
		return
	}
	s.ok(w, record)
}
