package sessionhandlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	scoringdomain "github.com/Black-And-White-Club/scorekeeper/app/modules/scoring/domain"
	sessionservice "github.com/Black-And-White-Club/scorekeeper/app/modules/session/application"
	"github.com/Black-And-White-Club/scorekeeper/app/shared/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const maxBodyBytes = 1 << 20

// HTTPHandlers serves the session REST API.
type HTTPHandlers struct {
	service sessionservice.Service
	logger  *slog.Logger
}

// NewHTTPHandlers creates a new HTTPHandlers instance.
func NewHTTPHandlers(service sessionservice.Service, logger *slog.Logger) *HTTPHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPHandlers{service: service, logger: logger}
}

// RouterOptions configures the HTTP middleware stack.
type RouterOptions struct {
	RateLimit      float64
	RateBurst      int
	JWTSecret      string
	RequestTimeout time.Duration
}

// NewRouter builds the chi router for the API. Authentication is enabled
// only when JWTSecret is set.
func NewRouter(h *HTTPHandlers, opts RouterOptions) chi.Router {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(PeerAddr)
	// RealIP only feeds request logging; rate limiting uses the peer address.
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(opts.RequestTimeout))

	r.Get("/healthz", h.Healthz)

	r.Route("/api", func(r chi.Router) {
		if opts.RateLimit > 0 {
			r.Use(RateLimitMiddleware(NewIPRateLimiter(rate.Limit(opts.RateLimit), max(opts.RateBurst, 1))))
		}
		if opts.JWTSecret != "" {
			r.Use(BearerAuthMiddleware(NewTokenValidator(opts.JWTSecret)))
		}

		r.Get("/games", h.ListGames)
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", h.CreateSession)
			r.Get("/", h.ListSessions)
			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", h.GetStandings)
				r.Delete("/", h.DeleteSession)
				r.Post("/rounds", h.RecordRound)
				r.Put("/rounds/{index}", h.AmendRound)
				r.Put("/dealer", h.OverrideDealer)
				r.Get("/export.xlsx", h.ExportScoresheet)
				r.Get("/chart.png", h.RenderChart)
			})
		})
	})
	return r
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeServiceError maps service errors onto status codes. Unexpected errors
// are logged and reported without detail.
func (h *HTTPHandlers) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case sessionservice.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case sessionservice.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	case sessionservice.IsConflict(err):
		writeError(w, http.StatusConflict, err.Error())
	default:
		h.logger.ErrorContext(r.Context(), "Request failed",
			observability.String("request_id", middleware.GetReqID(r.Context())),
			observability.String("path", r.URL.Path),
			observability.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

func sessionIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return uuid.Nil, false
	}
	return id, true
}

// Healthz reports liveness.
func (h *HTTPHandlers) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListGames returns the rules of every supported game.
func (h *HTTPHandlers) ListGames(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scoringdomain.AllRules())
}

// CreateSession starts a new game.
func (h *HTTPHandlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req sessionservice.CreateSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	st, err := h.service.CreateSession(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

// ListSessions returns sessions filtered by the game, completed, since and
// limit query parameters.
func (h *HTTPHandlers) ListSessions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := sessionservice.ListFilter{
		GameType: q.Get("game"),
		Since:    q.Get("since"),
	}
	if v := q.Get("completed"); v != "" {
		completed, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "completed must be a boolean")
			return
		}
		filter.Completed = &completed
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		filter.Limit = limit
	}

	sessions, err := h.service.ListSessions(r.Context(), filter)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if sessions == nil {
		sessions = []sessionservice.SessionSummary{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

// GetStandings returns the evaluated session.
func (h *HTTPHandlers) GetStandings(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDParam(w, r)
	if !ok {
		return
	}
	st, err := h.service.GetStandings(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// DeleteSession removes a session.
func (h *HTTPHandlers) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDParam(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteSession(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// roundRequest carries exactly one of Scores or Spades.
type roundRequest struct {
	Scores map[string]int                      `json:"scores"`
	Spades map[string]sessionservice.SpadesBid `json:"spades"`
}

var errRoundShape = errors.New(`body must contain exactly one of "scores" or "spades"`)

func (rr roundRequest) validate() error {
	if (rr.Scores == nil) == (rr.Spades == nil) {
		return errRoundShape
	}
	return nil
}

// RecordRound appends a round.
func (h *HTTPHandlers) RecordRound(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDParam(w, r)
	if !ok {
		return
	}
	var req roundRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var (
		res *sessionservice.RoundResult
		err error
	)
	if req.Spades != nil {
		res, err = h.service.RecordSpadesRound(r.Context(), id, req.Spades)
	} else {
		res, err = h.service.RecordRound(r.Context(), id, req.Scores)
	}
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// AmendRound replaces a stored round.
func (h *HTTPHandlers) AmendRound(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDParam(w, r)
	if !ok {
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		writeError(w, http.StatusBadRequest, "invalid round index")
		return
	}
	var req roundRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var res *sessionservice.RoundResult
	if req.Spades != nil {
		res, err = h.service.AmendSpadesRound(r.Context(), id, index, req.Spades)
	} else {
		res, err = h.service.AmendRound(r.Context(), id, index, req.Scores)
	}
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type dealerRequest struct {
	PlayerID string `json:"player_id"`
}

// OverrideDealer sets who deals the next Thirteen hand.
func (h *HTTPHandlers) OverrideDealer(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDParam(w, r)
	if !ok {
		return
	}
	var req dealerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.PlayerID == "" {
		writeError(w, http.StatusBadRequest, "player_id is required")
		return
	}
	st, err := h.service.OverrideDealer(r.Context(), id, req.PlayerID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// ExportScoresheet downloads the xlsx scoresheet. With stored=true the copy
// saved by the background export is returned instead of a fresh render.
func (h *HTTPHandlers) ExportScoresheet(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDParam(w, r)
	if !ok {
		return
	}
	stored, _ := strconv.ParseBool(r.URL.Query().Get("stored"))

	var (
		data []byte
		err  error
	)
	if stored {
		data, err = h.service.GetStoredScoresheet(r.Context(), id)
	} else {
		data, err = h.service.ExportScoresheet(r.Context(), id)
	}
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", sessionservice.XLSXContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="scoresheet-%s.xlsx"`, id))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// RenderChart returns the progress chart as a PNG.
func (h *HTTPHandlers) RenderChart(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDParam(w, r)
	if !ok {
		return
	}
	data, err := h.service.RenderProgressChart(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", sessionservice.PNGContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
