package notes

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/pulsedesk/pulsedesk/internal/platform/httpx"
	"github.com/pulsedesk/pulsedesk/internal/shared"
)

// RepositoryPort defines data access methods for notes.
type RepositoryPort interface {
	List(ctx context.Context) ([]Note, error)
	Get(ctx context.Context, id int64) (*Note, error)
	Create(ctx context.Context, req CreateNoteRequest, createdBy int64) (*Note, error)
}

// PermissionGuard gates routes on named permissions.
type PermissionGuard interface {
	Require(permissionName string) func(http.Handler) http.Handler
}

// Handler exposes note endpoints.
type Handler struct {
	logger   *slog.Logger
	repo     RepositoryPort
	validate *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, repo RepositoryPort) *Handler {
	return &Handler{logger: logger, repo: repo, validate: validator.New()}
}

// MountRoutes registers note routes behind the permission guard.
func (h *Handler) MountRoutes(r chi.Router, guard PermissionGuard) {
	r.Group(func(r chi.Router) {
		r.Use(guard.Require(shared.PermNotesView))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(guard.Require(shared.PermNotesEdit))
		r.Post("/", h.create)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	list, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("list notes", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if list == nil {
		list = []Note{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"notes": list})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid note id")
		return
	}
	note, err := h.repo.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, note)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	var req CreateNoteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	note, err := h.repo.Create(r.Context(), req, identity.UserID)
	if err != nil {
		h.logger.Error("create note", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, note)
}
