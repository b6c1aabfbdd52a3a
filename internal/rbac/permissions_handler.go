package rbac

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/pulsedesk/pulsedesk/internal/platform/httpx"
	"github.com/pulsedesk/pulsedesk/internal/shared"
)

// ActionRecorder appends admin actions to the audit log.
type ActionRecorder interface {
	Record(ctx context.Context, actor, action, entity, entityID string) error
}

// PermissionsHandler exposes the permission-management endpoints. Routes are
// mounted inside the admin group, which is already gated by RequireAdmin.
type PermissionsHandler struct {
	logger   *slog.Logger
	service  *Service
	audit    ActionRecorder
	validate *validator.Validate
	titler   cases.Caser
}

// NewPermissionsHandler builds a PermissionsHandler instance. The recorder is
// optional.
func NewPermissionsHandler(logger *slog.Logger, service *Service, audit ActionRecorder) *PermissionsHandler {
	return &PermissionsHandler{
		logger:   logger,
		service:  service,
		audit:    audit,
		validate: validator.New(),
		titler:   cases.Title(language.English),
	}
}

// MountRoutes registers permission routes. Reads are open to anyone who
// cleared the admin gate; replacing a grant set additionally requires the
// admin.manage_permissions permission.
func (h *PermissionsHandler) MountRoutes(r chi.Router, guard Middleware) {
	r.Get("/permissions", h.listGrouped)
	r.Get("/users/{id}/permissions", h.listForUser)
	r.With(guard.Require(shared.PermAdminPermissions)).Put("/users/{id}/permissions", h.setForUser)
}

type permissionView struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type categoryView struct {
	Category    string           `json:"category"`
	Label       string           `json:"label"`
	Permissions []permissionView `json:"permissions"`
}

func (h *PermissionsHandler) listGrouped(w http.ResponseWriter, r *http.Request) {
	groups, err := h.service.ListGroupedByCategory(r.Context())
	if err != nil {
		h.logger.Error("list permissions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	views := make([]categoryView, 0, len(groups))
	for _, group := range groups {
		perms := make([]permissionView, 0, len(group.Permissions))
		for _, perm := range group.Permissions {
			perms = append(perms, permissionView{ID: perm.ID, Name: perm.Name, Description: perm.Description})
		}
		views = append(views, categoryView{
			Category:    group.Category,
			Label:       h.titler.String(strings.ReplaceAll(group.Category, "_", " ")),
			Permissions: perms,
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"categories": views})
}

func (h *PermissionsHandler) listForUser(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid user id")
		return
	}
	ids, err := h.service.ListForUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("list user permissions", slog.Int64("user_id", userID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if ids == nil {
		ids = []int64{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"permission_ids": ids})
}

type setPermissionsRequest struct {
	// The empty set is a valid replacement; "required" would reject it, so
	// presence is checked separately against nil.
	PermissionIDs []int64 `json:"permission_ids" validate:"dive,gt=0"`
}

func (h *PermissionsHandler) setForUser(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid user id")
		return
	}
	var req setPermissionsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if req.PermissionIDs == nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "permission_ids is required")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.SetForUser(r.Context(), userID, req.PermissionIDs); err != nil {
		h.logger.Error("set user permissions", slog.Int64("user_id", userID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if h.audit != nil {
		if actor, ok := shared.IdentityFromContext(r.Context()); ok {
			if err := h.audit.Record(r.Context(), actor.Email, "permissions.replace", "user", strconv.FormatInt(userID, 10)); err != nil {
				h.logger.Error("record permission change", slog.Any("error", err))
			}
		}
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "updated"})
}
