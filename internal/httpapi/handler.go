package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"gallery-be/internal/auth"
	"gallery-be/internal/container"
	"gallery-be/internal/datalayer"
	"gallery-be/internal/httputil"
	"gallery-be/internal/logger"
	"gallery-be/internal/metrics"
	"gallery-be/internal/screen"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 16

type Handler struct {
	sessions  *screen.Manager
	issuer    *auth.Issuer
	macros    *datalayer.Registry
	container container.Fetcher
	metrics   *metrics.Registry
}

func NewHandler(sessions *screen.Manager, issuer *auth.Issuer, macros *datalayer.Registry, fetcher container.Fetcher, reg *metrics.Registry) *Handler {
	if reg == nil {
		reg = metrics.NewRegistry()
	}
	return &Handler{
		sessions:  sessions,
		issuer:    issuer,
		macros:    macros,
		container: fetcher,
		metrics:   reg,
	}
}

type sessionResponse struct {
	Token     string      `json:"token"`
	SessionID string      `json:"session_id"`
	Screen    screen.View `json:"screen"`
}

type selectRequest struct {
	Category string `json:"category"`
}

type macroRequest struct {
	Params map[string]interface{} `json:"params"`
}

type macroResponse struct {
	Value interface{} `json:"value"`
}

type healthResponse struct {
	Status           string            `json:"status"`
	ContainerVersion string            `json:"container_version"`
	Sessions         int               `json:"sessions"`
	Metrics          map[string]uint64 `json:"metrics"`
}

func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	id, ctrl := h.sessions.Create(r.Context())

	token, err := h.issuer.Issue(id)
	if err != nil {
		h.sessions.Delete(id)
		logger.FromCtx(r.Context()).Error("issuing session token failed", zap.Error(err))
		httputil.WriteJSONError(w, "could not create session", http.StatusInternalServerError)
		return
	}
	h.metrics.Counter("sessions_created").Inc()

	httputil.WriteJSON(w, http.StatusCreated, sessionResponse{
		Token:     token,
		SessionID: id,
		Screen:    ctrl.View(),
	})
}

func (h *Handler) GetScreen(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ctrl.View())
}

func (h *Handler) SelectCategory(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}

	var req selectRequest
	if err := decodeBody(w, r, &req); err != nil || req.Category == "" {
		httputil.WriteJSONError(w, "category is required", http.StatusBadRequest)
		return
	}

	h.respond(w, r, func(ctx context.Context) (screen.View, error) {
		return ctrl.Select(ctx, req.Category)
	})
}

func (h *Handler) Back(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}
	h.respond(w, r, ctrl.Back)
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}
	h.respond(w, r, ctrl.Refresh)
}

func (h *Handler) EvaluateMacro(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	var req macroRequest
	if r.ContentLength != 0 {
		if err := decodeBody(w, r, &req); err != nil {
			httputil.WriteJSONError(w, "invalid request body", http.StatusBadRequest)
			return
		}
	}

	value, err := h.macros.Evaluate(r.Context(), name, req.Params)
	if err != nil {
		logger.FromCtx(r.Context()).Warn("macro evaluation failed",
			zap.String("macro", name),
			zap.Error(err),
		)
		httputil.WriteJSONError(w, err.Error(), statusFor(err))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, macroResponse{Value: value})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	version := ""
	if h.container != nil {
		version = h.container.Current().Version
	}
	httputil.WriteJSON(w, http.StatusOK, healthResponse{
		Status:           "ok",
		ContainerVersion: version,
		Sessions:         h.sessions.Len(),
		Metrics:          h.metrics.Snapshot(),
	})
}

func (h *Handler) controller(w http.ResponseWriter, r *http.Request) (*screen.Controller, bool) {
	ctrl, err := h.sessions.Get(logger.SessionIDFrom(r.Context()))
	if err != nil {
		httputil.WriteJSONError(w, err.Error(), statusFor(err))
		return nil, false
	}
	return ctrl, true
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, action func(context.Context) (screen.View, error)) {
	view, err := action(r.Context())
	if err != nil {
		httputil.WriteJSONError(w, err.Error(), statusFor(err))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, screen.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, screen.ErrUnknownCategory), errors.Is(err, datalayer.ErrUnknownMacro):
		return http.StatusNotFound
	case errors.Is(err, screen.ErrSessionNotFound):
		return http.StatusUnauthorized
	case errors.Is(err, datalayer.ErrInvalidParams):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
