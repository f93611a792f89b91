package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/ledger"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/metrics"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/model"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/validation"
)

// Coordinator is the booking state machine the HTTP layer drives.
type Coordinator interface {
	Location() *time.Location
	Create(ctx context.Context, b model.Booking) (model.Booking, error)
	UpdateStatus(ctx context.Context, id string, status model.Status, notes *string) (model.Booking, error)
	Cancel(ctx context.Context, id string) (model.Booking, error)
	Delete(ctx context.Context, id string) error
	BookedTimes(ctx context.Context, day time.Time) ([]string, error)
	SlotBoard(ctx context.Context, day time.Time) (model.SlotBoard, error)
	BlockSlot(ctx context.Context, day time.Time, slotTime string) (model.SlotBoard, error)
	UnblockSlot(ctx context.Context, day time.Time, slotTime string) (model.SlotBoard, error)
	Repair(ctx context.Context, day time.Time) (model.SlotBoard, error)
}

type BookingHandler struct {
	coord   Coordinator
	ledger  ledger.Store
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewBookingHandler(coord Coordinator, ledgerStore ledger.Store, m *metrics.Metrics, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{coord: coord, ledger: ledgerStore, metrics: m, logger: logger}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req validation.BookingRequest
	if !decode(w, r, &req) {
		return
	}
	b, err := validation.Booking(req, h.coord.Location())
	if err != nil {
		h.metrics.Booking(metrics.OutcomeInvalid)
		writeFailure(w, r, h.logger, err, "Booking")
		return
	}

	created, err := h.coord.Create(r.Context(), b)
	if err != nil {
		writeFailure(w, r, h.logger, err, "Booking")
		return
	}
	writeOK(w, http.StatusCreated, "Booking created successfully", envelope{"booking": created})
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		f    ledger.Filter
		verr model.ValidationError
	)
	if raw := query(r, "page"); raw != "" {
		n, err := strconv.Atoi(raw)
		switch {
		case err != nil || n < 1:
			verr.Add("page", "must be a positive integer")
		case n > ledger.MaxPage:
			verr.Add("page", fmt.Sprintf("must be at most %d", ledger.MaxPage))
		}
		f.Page = n
	}
	if raw := query(r, "limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			verr.Add("limit", "must be a positive integer")
		}
		f.Limit = n
	}
	if raw := query(r, "status"); raw != "" {
		status, ok := model.ParseStatus(raw)
		if !ok {
			verr.Add("status", "must be one of pending, confirmed, cancelled, completed")
		}
		f.Status = status
	}
	if raw := query(r, "date"); raw != "" {
		day, err := model.ParseDay(raw, h.coord.Location())
		if err != nil {
			verr.Add("date", "must be a date like 2026-01-28")
		}
		f.Day = day
	}
	f.Search = query(r, "search")
	if err := verr.Err(); err != nil {
		writeFailure(w, r, h.logger, err, "Booking")
		return
	}

	f = f.Normalize()
	page, err := h.ledger.List(r.Context(), f)
	if err != nil {
		writeFailure(w, r, h.logger, err, "Booking")
		return
	}
	bookings := page.Bookings
	if bookings == nil {
		bookings = []model.Booking{}
	}
	pages := (page.Total + int64(f.Limit) - 1) / int64(f.Limit)
	writeOK(w, http.StatusOK, "Bookings retrieved", envelope{
		"bookings": bookings,
		"pagination": envelope{
			"page":  f.Page,
			"limit": f.Limit,
			"total": page.Total,
			"pages": pages,
		},
	})
}

func (h *BookingHandler) BookedSlots(w http.ResponseWriter, r *http.Request) {
	day, err := validation.Day(query(r, "date"), h.coord.Location())
	if err != nil {
		writeFailure(w, r, h.logger, err, "Booking")
		return
	}
	times, err := h.coord.BookedTimes(r.Context(), day)
	if err != nil {
		writeFailure(w, r, h.logger, err, "Booking")
		return
	}
	writeOK(w, http.StatusOK, "Booked slots retrieved", envelope{
		"date":        model.FormatDay(day),
		"bookedSlots": times,
	})
}

func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	b, err := h.ledger.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeFailure(w, r, h.logger, err, "Booking")
		return
	}
	writeOK(w, http.StatusOK, "Booking retrieved", envelope{"booking": b})
}

func (h *BookingHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req validation.StatusUpdateRequest
	if !decode(w, r, &req) {
		return
	}
	status, notes, err := validation.StatusUpdate(req)
	if err != nil {
		writeFailure(w, r, h.logger, err, "Booking")
		return
	}
	b, err := h.coord.UpdateStatus(r.Context(), mux.Vars(r)["id"], status, notes)
	if err != nil {
		writeFailure(w, r, h.logger, err, "Booking")
		return
	}
	writeOK(w, http.StatusOK, "Booking status updated", envelope{"booking": b})
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	b, err := h.coord.Cancel(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeFailure(w, r, h.logger, err, "Booking")
		return
	}
	writeOK(w, http.StatusOK, "Booking cancelled successfully", envelope{"booking": b})
}

func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.coord.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeFailure(w, r, h.logger, err, "Booking")
		return
	}
	writeOK(w, http.StatusOK, "Booking deleted", nil)
}
