package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	financialengine "helios/contexts/proposal-core/financial-engine"
	domainerrors "helios/contexts/proposal-core/financial-engine/domain/errors"
	enginehttp "helios/contexts/proposal-core/financial-engine/transport/http"

	"github.com/golang-jwt/jwt/v5"
	httpSwagger "github.com/swaggo/http-swagger"
	_ "helios/internal/platform/httpserver/docs"
)

type Server struct {
	mux       *http.ServeMux
	logger    *slog.Logger
	addr      string
	jwtSecret []byte
	engine    financialengine.Module
}

func New(
	engine financialengine.Module,
	jwtSecret string,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:       http.NewServeMux(),
		logger:    logger,
		addr:      addr,
		jwtSecret: []byte(jwtSecret),
		engine:    engine,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /api/proposals/v1/proposals/{proposal_id}/generate", s.handleGenerate)
	s.mux.HandleFunc("GET /api/proposals/v1/proposals/{proposal_id}/versions", s.handleListVersions)
	s.mux.HandleFunc("GET /api/proposals/v1/versions/{version_id}", s.handleGetVersion)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.resolveSubject(r)
	if !ok {
		writeEngineError(w, http.StatusUnauthorized, "unauthorized", "a valid bearer token is required")
		return
	}

	var req enginehttp.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEngineError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.engine.Handler.GenerateHandler(
		r.Context(),
		userID,
		r.PathValue("proposal_id"),
		r.Header.Get("Idempotency-Key"),
		req,
	)
	if err != nil {
		writeEngineDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListVersions(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.resolveSubject(r)
	if !ok {
		writeEngineError(w, http.StatusUnauthorized, "unauthorized", "a valid bearer token is required")
		return
	}
	resp, err := s.engine.Handler.ListVersionsHandler(r.Context(), userID, r.PathValue("proposal_id"))
	if err != nil {
		writeEngineDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetVersion(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.resolveSubject(r)
	if !ok {
		writeEngineError(w, http.StatusUnauthorized, "unauthorized", "a valid bearer token is required")
		return
	}
	resp, err := s.engine.Handler.GetVersionHandler(r.Context(), userID, r.PathValue("version_id"))
	if err != nil {
		writeEngineDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// resolveSubject extracts the authenticated user from the bearer token.
// Without a configured secret the gateway is trusted and the subject comes
// from the X-User-Id header, which keeps local runs tokenless.
func (s *Server) resolveSubject(r *http.Request) (string, bool) {
	if len(s.jwtSecret) == 0 {
		userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
		return userID, userID != ""
	}

	authorization := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(authorization, "Bearer ") {
		return "", false
	}
	raw := strings.TrimSpace(strings.TrimPrefix(authorization, "Bearer "))

	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return "", false
	}
	subject, err := token.Claims.GetSubject()
	if err != nil || strings.TrimSpace(subject) == "" {
		return "", false
	}
	return strings.TrimSpace(subject), true
}

func writeEngineDomainError(w http.ResponseWriter, err error) {
	var missing *domainerrors.MissingVariablesError
	switch {
	case errors.As(err, &missing):
		writeJSON(w, http.StatusUnprocessableEntity, enginehttp.ErrorResponse{
			Error:   domainerrors.Code(err),
			Message: err.Error(),
			Missing: missing.Fields,
		})
	case errors.Is(err, domainerrors.ErrUndefinedGroup),
		errors.Is(err, domainerrors.ErrMixedGroups),
		errors.Is(err, domainerrors.ErrEstimateNotAccepted):
		writeEngineError(w, http.StatusUnprocessableEntity, domainerrors.Code(err), err.Error())
	case errors.Is(err, domainerrors.ErrUnauthorized):
		writeEngineError(w, http.StatusUnauthorized, "unauthorized", err.Error())
	case errors.Is(err, domainerrors.ErrForbidden):
		writeEngineError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, domainerrors.ErrProposalNotFound),
		errors.Is(err, domainerrors.ErrVersionNotFound):
		writeEngineError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domainerrors.ErrIdempotencyKeyMissing):
		writeEngineError(w, http.StatusBadRequest, "idempotency_key_required", err.Error())
	case errors.Is(err, domainerrors.ErrInvalidInput):
		writeEngineError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		writeEngineError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeEngineError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, enginehttp.ErrorResponse{
		Error:   code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
