package license

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/pulsedesk/pulsedesk/internal/platform/httpx"
	"github.com/pulsedesk/pulsedesk/internal/shared"
)

// ActionRecorder appends admin actions to the audit log.
type ActionRecorder interface {
	Record(ctx context.Context, actor, action, entity, entityID string) error
}

// Handler exposes license endpoints. Validation is public; status and
// generation are gated on license.manage inside the service.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	audit    ActionRecorder
	validate *validator.Validate
}

// NewHandler builds a Handler instance. The recorder is optional.
func NewHandler(logger *slog.Logger, service *Service, audit ActionRecorder) *Handler {
	return &Handler{logger: logger, service: service, audit: audit, validate: validator.New()}
}

// MountPublicRoutes registers the unauthenticated validation endpoint.
func (h *Handler) MountPublicRoutes(r chi.Router) {
	r.Post("/validate", h.validateKey)
}

// MountProtectedRoutes registers endpoints that require a verified identity.
// The service performs its own license.manage check on top.
func (h *Handler) MountProtectedRoutes(r chi.Router) {
	r.Get("/status", h.status)
	r.Post("/generate", h.generate)
}

type validateRequest struct {
	LicenseKey string `json:"license_key" validate:"required"`
}

func (h *Handler) validateKey(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	result, err := h.service.Validate(r.Context(), req.LicenseKey)
	if err != nil {
		h.logger.Error("validate license", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	status, err := h.service.Status(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, status)
}

type generateRequest struct {
	CustomerID   string   `json:"customer_id" validate:"required"`
	CustomerName string   `json:"customer_name" validate:"required"`
	ExpiresAt    string   `json:"expires_at" validate:"required"`
	MaxUsers     int      `json:"max_users" validate:"gte=0"`
	Features     []string `json:"features"`
}

func (h *Handler) generate(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	var req generateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	expiresAt, err := time.Parse(time.RFC3339, req.ExpiresAt)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "expires_at must be RFC3339")
		return
	}
	key, err := h.service.Generate(r.Context(), id, Payload{
		CustomerID:   req.CustomerID,
		CustomerName: req.CustomerName,
		ExpiresAt:    expiresAt,
		MaxUsers:     req.MaxUsers,
		Features:     req.Features,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if h.audit != nil {
		if err := h.audit.Record(r.Context(), id.Email, "license.generate", "license", req.CustomerID); err != nil {
			h.logger.Error("record license generation", slog.Any("error", err))
		}
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"license_key": key})
}
