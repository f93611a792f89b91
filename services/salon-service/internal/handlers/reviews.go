package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/reviews"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/validation"
)

type ReviewHandler struct {
	store  reviews.Store
	logger *slog.Logger
}

func NewReviewHandler(store reviews.Store, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{store: store, logger: logger}
}

// List serves the public, approved-only feed.
func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, true)
}

func (h *ReviewHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, false)
}

func (h *ReviewHandler) list(w http.ResponseWriter, r *http.Request, approvedOnly bool) {
	out, err := h.store.List(r.Context(), approvedOnly)
	if err != nil {
		writeFailure(w, r, h.logger, err, "Review")
		return
	}
	writeOK(w, http.StatusOK, "Reviews retrieved", envelope{"reviews": out})
}

func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req validation.ReviewRequest
	if !decode(w, r, &req) {
		return
	}
	review, err := validation.Review(req)
	if err != nil {
		writeFailure(w, r, h.logger, err, "Review")
		return
	}
	created, err := h.store.Create(r.Context(), review)
	if err != nil {
		writeFailure(w, r, h.logger, err, "Review")
		return
	}
	writeOK(w, http.StatusCreated, "Thank you! Your review will appear once approved", envelope{"review": created})
}

type approveRequest struct {
	Approved *bool `json:"approved"`
}

// Approve sets the moderation flag; an empty body approves.
func (h *ReviewHandler) Approve(w http.ResponseWriter, r *http.Request) {
	var req approveRequest
	if r.ContentLength != 0 && !decode(w, r, &req) {
		return
	}
	approved := true
	if req.Approved != nil {
		approved = *req.Approved
	}
	review, err := h.store.SetApproved(r.Context(), mux.Vars(r)["id"], approved)
	if err != nil {
		writeFailure(w, r, h.logger, err, "Review")
		return
	}
	writeOK(w, http.StatusOK, "Review updated", envelope{"review": review})
}

func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeFailure(w, r, h.logger, err, "Review")
		return
	}
	writeOK(w, http.StatusOK, "Review deleted", nil)
}
