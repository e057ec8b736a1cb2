package author

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"bookbff/internal/httpx"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

// RegisterRoutes mounts the author endpoints under /api/v1/authors.
func (h *HTTPHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/authors", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.GetByID)
	})
}

// List handles GET /api/v1/authors
// @Summary List authors
// @Tags authors
// @Produce json
// @Success 200 {array} View
// @Router /api/v1/authors [get]
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	httpx.JSONOK(w, h.service.List(r.Context()))
}

// GetByID handles GET /api/v1/authors/{id}
// @Summary Get author by id
// @Tags authors
// @Produce json
// @Param id path string true "Author id"
// @Success 200 {object} View
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /api/v1/authors/{id} [get]
func (h *HTTPHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_ID", "Author id must be a UUID", nil)
		return
	}

	view, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Author isn't found", nil)
			return
		}
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	httpx.JSONOK(w, view)
}

// Create handles POST /api/v1/authors
// @Summary Create author
// @Tags authors
// @Accept json
// @Produce json
// @Param body body CreateCommand true "New author"
// @Success 201 {object} View
// @Failure 400 {object} httpx.ErrorResponse
// @Router /api/v1/authors [post]
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	var cmd CreateCommand
	if err := httpx.DecodeJSON(r, &cmd); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_BODY", "Request body must be valid JSON", nil)
		return
	}
	if details := httpx.ValidateStruct(cmd); len(details) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid author", details)
		return
	}

	view, err := h.service.Create(r.Context(), cmd)
	if err != nil {
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	httpx.JSONCreated(w, view)
}
