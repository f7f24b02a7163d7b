package httpx

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/websubhamdevloper/votecore/internal/service/auth"
	"github.com/websubhamdevloper/votecore/internal/service/results"
	"github.com/websubhamdevloper/votecore/internal/service/vote"
	"github.com/websubhamdevloper/votecore/internal/ws"
)

// Router wires HTTP endpoints to services.
type Router struct {
	mux      *http.ServeMux
	logger   *slog.Logger
	auth     auth.Service
	vote     vote.Service
	results  results.Service
	hub      *ws.Hub
	upgrader websocket.Upgrader
	limiter  RateLimiter
	dbHealth func(context.Context) error

	metricsOnce        sync.Once
	metricsInitialized bool
	requestTotal       *prometheus.CounterVec
	requestLatency     *prometheus.HistogramVec
	rateLimitHits      *prometheus.CounterVec
	votesAccepted      prometheus.Counter
	voteRejections     *prometheus.CounterVec
}

const (
	rateWindowDefault  = time.Minute
	rateWindowRealtime = 30 * time.Second
	rateLimitRegister  = 5
	rateLimitLogin     = 12
	rateLimitVote      = 30
	rateLimitResults   = 120
	rateLimitWebsocket = 30
	healthCheckTimeout = 2 * time.Second
)

// NewRouter assembles routes with dependencies.
func NewRouter(logger *slog.Logger, authSvc auth.Service, voteSvc vote.Service, resultsSvc results.Service, hub *ws.Hub, limiter RateLimiter, dbHealth func(context.Context) error) *Router {
	r := &Router{
		mux:     http.NewServeMux(),
		logger:  logger,
		auth:    authSvc,
		vote:    voteSvc,
		results: resultsSvc,
		hub:     hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		limiter:  limiter,
		dbHealth: dbHealth,
	}
	if r.limiter == nil {
		r.limiter = NewMemoryRateLimiter()
	}
	r.initMetrics()
	r.register()
	return r
}

// ServeHTTP delegates to underlying mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Close releases background resources.
func (r *Router) Close() {
	if r.limiter != nil {
		r.limiter.Close()
	}
}

func (r *Router) register() {
	r.mux.HandleFunc("/healthz", r.audit(r.handleHealthz))
	r.mux.Handle("/metrics", promhttp.Handler())
	r.mux.HandleFunc("/auth/register", r.audit(r.withRateLimit("/auth/register", rateLimitRegister, rateWindowDefault, rateLimitKeyIP, r.handleRegister)))
	r.mux.HandleFunc("/auth/login", r.audit(r.withRateLimit("/auth/login", rateLimitLogin, rateWindowDefault, rateLimitKeyIP, r.handleLogin)))
	r.mux.HandleFunc("/vote", r.audit(r.sessionRate("/vote", rateLimitVote, rateWindowDefault, r.handleVote)))
	r.mux.HandleFunc("/results", r.audit(r.withRateLimit("/results", rateLimitResults, rateWindowDefault, rateLimitKeyIP, r.handleResults)))
	r.mux.HandleFunc("/ws/results", r.audit(r.withRateLimit("/ws/results", rateLimitWebsocket, rateWindowRealtime, rateLimitKeyIP, r.handleResultsWS)))
}

func (r *Router) handleRegister(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var payload struct {
		FullName string `json:"full_name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Confirm  string `json:"confirm"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		r.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user, err := r.auth.Register(req.Context(), payload.FullName, payload.Email, payload.Password, payload.Confirm)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailTaken):
			r.respondError(w, http.StatusConflict, "email already registered")
		case errors.Is(err, auth.ErrPasswordMismatch), errors.Is(err, auth.ErrMissingField):
			r.respondError(w, http.StatusBadRequest, err.Error())
		default:
			r.logger.Error("registration failed", "error", err)
			r.respondError(w, http.StatusInternalServerError, "registration failed")
		}
		return
	}
	r.respondJSON(w, http.StatusCreated, map[string]any{
		"voter": map[string]any{
			"id":        user.ID,
			"full_name": user.FullName,
			"email":     user.Email,
		},
	})
}

func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var payload struct {
		Email    string `json:"email"`
		FullName string `json:"full_name"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		r.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	session, signed, err := r.auth.Authenticate(req.Context(), payload.Email, payload.FullName, payload.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrAlreadyVoted):
			// Eligibility is surfaced distinctly; the voter is identified
			// but terminally spent.
			r.respondError(w, http.StatusConflict, "vote already cast for this voter")
		case errors.Is(err, auth.ErrVoterNotFound),
			errors.Is(err, auth.ErrIdentityMismatch),
			errors.Is(err, auth.ErrBadCredential):
			// One message for all credential factors; the audit log keeps
			// the distinction.
			r.logger.Warn("login rejected", "error", err)
			r.respondError(w, http.StatusUnauthorized, "login failed")
		default:
			r.logger.Error("login error", "error", err)
			r.respondError(w, http.StatusInternalServerError, "login failed")
		}
		return
	}
	r.respondJSON(w, http.StatusOK, map[string]any{
		"token": signed,
		"voter": map[string]any{
			"id":        session.VoterID,
			"full_name": session.FullName,
			"email":     session.Email,
			"voted":     session.Voted,
		},
	})
}

func (r *Router) handleVote(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	session, ok := sessionFromContext(req.Context())
	if !ok {
		r.logger.Error("session context missing for vote", "path", req.URL.Path)
		r.respondError(w, http.StatusInternalServerError, "session context missing")
		return
	}
	var payload struct {
		Candidate string `json:"candidate"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		r.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	receipt, err := r.vote.Cast(req.Context(), &session, payload.Candidate)
	if err != nil {
		switch {
		case errors.Is(err, vote.ErrMissingCandidate):
			r.recordVoteRejection("missing_candidate")
			r.respondError(w, http.StatusBadRequest, "no candidate selected")
		case errors.Is(err, vote.ErrUnknownCandidate):
			r.recordVoteRejection("unknown_candidate")
			r.respondError(w, http.StatusNotFound, "unknown candidate")
		case errors.Is(err, vote.ErrAlreadyVoted):
			r.recordVoteRejection("already_voted")
			r.respondError(w, http.StatusConflict, "vote already cast for this voter")
		case errors.Is(err, vote.ErrUnauthenticated):
			r.recordVoteRejection("unauthenticated")
			r.respondError(w, http.StatusUnauthorized, "authentication required")
		default:
			// Transient storage failure; the whole cast rolled back and the
			// client may retry the request.
			r.recordVoteRejection("storage")
			r.respondError(w, http.StatusServiceUnavailable, "vote could not be recorded, retry")
		}
		return
	}
	r.recordVoteAccepted()
	r.broadcastTally(req.Context())
	r.respondJSON(w, http.StatusCreated, map[string]any{
		"receipt": receipt,
		"voted":   session.Voted,
	})
}

func (r *Router) handleResults(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	result, err := r.results.Compute(req.Context())
	if err != nil {
		r.logger.Error("result aggregation failed", "error", err)
		r.respondError(w, http.StatusInternalServerError, "results unavailable")
		return
	}
	r.respondJSON(w, http.StatusOK, result)
}

func (r *Router) handleResultsWS(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	client := ws.NewClient(conn, r.logger)
	r.hub.Register(client)
	go func() {
		defer func() {
			r.hub.Unregister(client)
			client.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

// broadcastTally pushes the fresh ranked tally to websocket watchers after a
// committed vote. Failures here never affect the vote outcome.
func (r *Router) broadcastTally(ctx context.Context) {
	if r.hub == nil {
		return
	}
	result, err := r.results.Compute(ctx)
	if err != nil {
		r.logger.Warn("tally broadcast skipped", "error", err)
		return
	}
	payload, err := json.Marshal(result)
	if err != nil {
		r.logger.Warn("tally broadcast marshal failed", "error", err)
		return
	}
	r.hub.Broadcast(payload)
}

func (r *Router) handleHealthz(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	components := make(map[string]any)
	status := "ok"
	ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
	defer cancel()
	if r.dbHealth != nil {
		if err := r.dbHealth(ctx); err != nil {
			status = "degraded"
			components["database"] = map[string]any{
				"status": "down",
				"error":  err.Error(),
			}
		} else {
			components["database"] = map[string]any{"status": "up"}
		}
	}
	if err := r.results.CheckCounters(ctx); err != nil {
		status = "degraded"
		components["tally"] = map[string]any{
			"status": "drift",
			"error":  err.Error(),
		}
	} else {
		components["tally"] = map[string]any{"status": "consistent"}
	}
	payload := map[string]any{
		"status":     status,
		"components": components,
		"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
	}
	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	r.respondJSON(w, code, payload)
}

func (r *Router) audit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		next(recorder, req)

		status := recorder.status
		if status == 0 {
			status = http.StatusOK
		}
		ctx := recorder.ctx
		if ctx == nil {
			ctx = req.Context()
		}
		duration := time.Since(start)
		actor := "anonymous"
		fields := []any{
			"method", req.Method,
			"path", req.URL.Path,
			"status", status,
			"bytes", recorder.bytes,
			"duration_ms", duration.Milliseconds(),
		}
		if ip := clientIP(req); ip != "" {
			fields = append(fields, "ip", ip)
		}
		if reqID := strings.TrimSpace(req.Header.Get("X-Request-ID")); reqID != "" {
			fields = append(fields, "request_id", reqID)
		}
		if session, ok := sessionFromContext(ctx); ok {
			actor = "voter"
			fields = append(fields, "voter_id", session.VoterID)
		}
		fields = append(fields, "actor", actor)

		r.recordRequestMetrics(req.Method, req.URL.Path, status, duration)

		switch {
		case status >= http.StatusInternalServerError:
			r.logger.Error("http_request", fields...)
		case status >= http.StatusBadRequest:
			r.logger.Warn("http_request", fields...)
		default:
			r.logger.Info("http_request", fields...)
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
	ctx    context.Context
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

func (sr *statusRecorder) SetContext(ctx context.Context) {
	sr.ctx = ctx
}

func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (sr *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := sr.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, errors.New("hijacker not supported")
}

func clientIP(req *http.Request) string {
	if forwarded := strings.TrimSpace(req.Header.Get("X-Forwarded-For")); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 {
			ip := strings.TrimSpace(parts[0])
			if ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(req.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(req.RemoteAddr)
	}
	return host
}

func (r *Router) applyRateHeaders(w http.ResponseWriter, limit int, decision rateDecision) {
	if limit <= 0 {
		return
	}
	remaining := limit - decision.count
	if remaining < 0 {
		remaining = 0
	}
	headers := w.Header()
	headers.Set("X-RateLimit-Limit", strconv.Itoa(limit))
	headers.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	if !decision.windowEnd.IsZero() {
		headers.Set("X-RateLimit-Reset", strconv.FormatInt(decision.windowEnd.Unix(), 10))
	}
}

func (r *Router) methodNotAllowed(w http.ResponseWriter) {
	r.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
}
