package book

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

// RegisterRoutes mounts the book endpoints under /api/v1/books.
func (h *HTTPHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/books", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.GetByID)
	})
}

// List handles GET /api/v1/books
// @Summary List books
// @Tags books
// @Produce json
// @Success 200 {array} View
// @Router /api/v1/books [get]
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	httpx.JSONOK(w, h.service.List(r.Context()))
}

// GetByID handles GET /api/v1/books/{id}
// @Summary Get book by id
// @Tags books
// @Produce json
// @Param id path string true "Book id"
// @Success 200 {object} View
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /api/v1/books/{id} [get]
func (h *HTTPHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_ID", "Book id must be a UUID", nil)
		return
	}

	view, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Book isn't found", nil)
			return
		}
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	httpx.JSONOK(w, view)
}

// Create handles POST /api/v1/books
// @Summary Create book
// @Description The referenced author is looked up in the authors service first.
// @Tags books
// @Accept json
// @Produce json
// @Param body body CreateCommand true "New book"
// @Success 201 {object} View
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /api/v1/books [post]
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	var cmd CreateCommand
	if err := httpx.DecodeJSON(r, &cmd); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_BODY", "Request body must be valid JSON", nil)
		return
	}
	if details := httpx.ValidateStruct(cmd); len(details) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid book", details)
		return
	}

	view, err := h.service.Create(r.Context(), cmd)
	if err != nil {
		switch {
		case errors.Is(err, ErrAuthorNotFound):
			httpx.JSONError(w, r, http.StatusNotFound, "AUTHOR_NOT_FOUND", "Author isn't found", []httpx.ErrorDetail{
				{Field: "authorId", Message: "no author with id " + cmd.AuthorID.String()},
			})
		default:
			httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		}
		return
	}
	httpx.JSONCreated(w, view)
}
