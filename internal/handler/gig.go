package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/gigflow/internal/auth"
	"github.com/sakif/gigflow/internal/model"
	"github.com/sakif/gigflow/internal/service"
)

// GigHandler manages the gig endpoints: browsing open gigs is public,
// posting and "my gigs" require auth.
type GigHandler struct {
	gigs   *service.GigService
	logger *slog.Logger
}

func NewGigHandler(gigs *service.GigService, logger *slog.Logger) *GigHandler {
	return &GigHandler{gigs: gigs, logger: logger}
}

type createGigRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Budget      float64 `json:"budget"`
}

// pagination mirrors what the frontend's gig browser consumes.
type pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

type gigListResponse struct {
	Gigs       []model.Gig `json:"gigs"`
	Pagination pagination  `json:"pagination"`
}

// HandleCreate posts a new gig owned by the authenticated user.
//
// HTTP: POST /api/gigs (requires auth)
func (h *GigHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "not authenticated"})
		return
	}

	var req createGigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid gig JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid JSON body"})
		return
	}

	gig, err := h.gigs.Create(r.Context(), id.ID, req.Title, req.Description, req.Budget)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"gig": gig})
}

// HandleList returns open gigs with search and pagination.
//
// HTTP: GET /api/gigs?search=&page=&limit=
func (h *GigHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = service.DefaultGigPageSize
	}

	gigs, total, err := h.gigs.ListOpen(r.Context(), q.Get("search"), page, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	pages := (total + limit - 1) / limit
	writeJSON(w, http.StatusOK, gigListResponse{
		Gigs: gigs,
		Pagination: pagination{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: pages,
		},
	})
}

// HandleListMine returns the authenticated user's own gigs, any status.
//
// HTTP: GET /api/gigs/my-gigs (requires auth)
func (h *GigHandler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "not authenticated"})
		return
	}

	gigs, err := h.gigs.ListMine(r.Context(), id.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"gigs": gigs})
}

// HandleGetByID returns a single gig.
//
// HTTP: GET /api/gigs/{id}
func (h *GigHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	gig, err := h.gigs.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"gig": gig})
}
