package tasks

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/maintkeep/maintkeep/internal/pkg/httputil"
)

// Handler handles HTTP requests for the tasks module.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new task handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(),
	}
}

// RegisterRoutes registers task routes that require authentication.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/tasks", func(r chi.Router) {
		r.Post("/", h.Add)
		r.Get("/", h.List)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

// RegisterPublicRoutes registers task routes open to anonymous callers.
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/tasks/{id}", h.GetByID)
}

// AddTaskRequest represents the request body for creating a task.
type AddTaskRequest struct {
	Summary string `json:"summary" validate:"required,min=1,max=500"`
}

// Add handles POST /tasks. The owner is the authenticated subject.
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	var req AddTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	userID := httputil.GetUserID(r.Context())
	if userID == "" {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	task, err := h.service.Add(r.Context(), userID, req.Summary)
	if err != nil {
		h.handleServiceError(r, w, err)
		return
	}

	httputil.Success(w, http.StatusCreated, task)
}

// List handles GET /tasks.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	taskList, err := h.service.List(r.Context())
	if err != nil {
		h.handleServiceError(r, w, err)
		return
	}

	httputil.Success(w, http.StatusOK, taskList)
}

// GetByID handles GET /tasks/{id}.
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	task, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.handleServiceError(r, w, err)
		return
	}

	httputil.Success(w, http.StatusOK, task)
}

// UpdateTaskRequest represents the request body for updating a task.
// Only the summary is mutable.
type UpdateTaskRequest struct {
	Summary string `json:"summary" validate:"required,min=1,max=500"`
}

// Update handles PUT /tasks/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	task, err := h.service.Update(r.Context(), id, req.Summary)
	if err != nil {
		h.handleServiceError(r, w, err)
		return
	}

	httputil.Success(w, http.StatusOK, task)
}

// Delete handles DELETE /tasks/{id}. A missing task yields 404; a
// successful deletion yields 204.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	deleted, err := h.service.Delete(r.Context(), id)
	if err != nil {
		h.handleServiceError(r, w, err)
		return
	}
	if !deleted {
		httputil.Error(w, http.StatusNotFound, ErrTaskNotFound.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleServiceError(r *http.Request, w http.ResponseWriter, err error) {
	httputil.HandleError(r.Context(), w, err, []httputil.ErrorMapping{
		{Error: ErrTaskNotFound, Status: http.StatusNotFound},
		{Error: ErrInvalidInput, Status: http.StatusBadRequest},
	})
}
