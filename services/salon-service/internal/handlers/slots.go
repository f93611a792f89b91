package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/model"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/validation"
)

type SlotHandler struct {
	coord  Coordinator
	logger *slog.Logger
}

func NewSlotHandler(coord Coordinator, logger *slog.Logger) *SlotHandler {
	return &SlotHandler{coord: coord, logger: logger}
}

type slotRequest struct {
	Time string `json:"time"`
}

func (h *SlotHandler) Get(w http.ResponseWriter, r *http.Request) {
	day, ok := h.day(w, r)
	if !ok {
		return
	}
	board, err := h.coord.SlotBoard(r.Context(), day)
	h.respond(w, r, board, err, "Slots retrieved")
}

func (h *SlotHandler) Block(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.coord.BlockSlot, "Slot blocked")
}

func (h *SlotHandler) Unblock(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.coord.UnblockSlot, "Slot unblocked")
}

func (h *SlotHandler) Repair(w http.ResponseWriter, r *http.Request) {
	day, ok := h.day(w, r)
	if !ok {
		return
	}
	board, err := h.coord.Repair(r.Context(), day)
	h.respond(w, r, board, err, "Slots rebuilt from bookings")
}

func (h *SlotHandler) mutate(w http.ResponseWriter, r *http.Request, op func(context.Context, time.Time, string) (model.SlotBoard, error), message string) {
	day, ok := h.day(w, r)
	if !ok {
		return
	}
	var req slotRequest
	if !decode(w, r, &req) {
		return
	}
	slotTime, err := validation.SlotTime(req.Time)
	if err != nil {
		writeFailure(w, r, h.logger, err, "Slot")
		return
	}
	board, err := op(r.Context(), day, slotTime)
	h.respond(w, r, board, err, message)
}

func (h *SlotHandler) day(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	day, err := validation.Day(mux.Vars(r)["date"], h.coord.Location())
	if err != nil {
		writeFailure(w, r, h.logger, err, "Slot")
		return time.Time{}, false
	}
	return day, true
}

func (h *SlotHandler) respond(w http.ResponseWriter, r *http.Request, board model.SlotBoard, err error, message string) {
	if err != nil {
		writeFailure(w, r, h.logger, err, "Slot")
		return
	}
	writeOK(w, http.StatusOK, message, envelope{
		"date":  model.FormatDay(board.Date),
		"slots": board.Slots,
	})
}
