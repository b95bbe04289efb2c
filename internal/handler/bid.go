package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/gigflow/internal/auth"
	"github.com/sakif/gigflow/internal/service"
)

// BidHandler manages the bid endpoints, all of which require auth: placing
// a bid, listing a gig's bids (owner only), listing your own bids, and the
// hire action.
type BidHandler struct {
	bids   *service.BidService
	logger *slog.Logger
}

func NewBidHandler(bids *service.BidService, logger *slog.Logger) *BidHandler {
	return &BidHandler{bids: bids, logger: logger}
}

type createBidRequest struct {
	GigID        string  `json:"gigId"`
	Message      string  `json:"message"`
	Price        float64 `json:"price"`
	DeliveryTime int     `json:"deliveryTime"`
	Revisions    int     `json:"revisions"`
}

// HandleCreate places a bid by the authenticated freelancer.
//
// HTTP: POST /api/bids (requires auth)
//
// Possible outcomes beyond 201: 400 for field violations, 404 for a missing
// gig, 403 for bidding on your own gig, 409 for a closed gig or a duplicate
// bid — including the losing side of two simultaneous identical requests.
func (h *BidHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "not authenticated"})
		return
	}

	var req createBidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid bid JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid JSON body"})
		return
	}

	bid, err := h.bids.Create(r.Context(), id.ID, req.GigID, req.Message, req.Price, req.DeliveryTime, req.Revisions)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"bid": bid})
}

// HandleListByGig returns all bids on a gig — gig owner only.
//
// HTTP: GET /api/bids/{gigId} (requires auth)
func (h *BidHandler) HandleListByGig(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "not authenticated"})
		return
	}

	bids, err := h.bids.ListByGig(r.Context(), id.ID, r.PathValue("gigId"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"bids": bids})
}

// HandleListMine returns the authenticated freelancer's bids.
//
// HTTP: GET /api/bids/my-bids (requires auth)
func (h *BidHandler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "not authenticated"})
		return
	}

	bids, err := h.bids.ListMine(r.Context(), id.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"bids": bids})
}

// HandleHire selects a winning bid on behalf of the gig owner.
//
// HTTP: PATCH /api/bids/{bidId}/hire (requires auth)
//
// Exactly one hire can ever succeed per gig. A request that loses the race
// gets 409 with "gig is no longer open for hiring".
func (h *BidHandler) HandleHire(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "not authenticated"})
		return
	}

	result, err := h.bids.Hire(r.Context(), id.ID, r.PathValue("bidId"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"bid":     result.Bid,
		"gig":     result.Gig,
		"message": "Freelancer hired successfully",
	})
}
