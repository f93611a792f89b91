package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/catalog"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/model"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/validation"
)

type ServiceHandler struct {
	store  catalog.Store
	logger *slog.Logger
}

func NewServiceHandler(store catalog.Store, logger *slog.Logger) *ServiceHandler {
	return &ServiceHandler{store: store, logger: logger}
}

func (h *ServiceHandler) List(w http.ResponseWriter, r *http.Request) {
	category := model.Category(query(r, "category"))
	if category != "" && !category.Valid() {
		writeFailure(w, r, h.logger, model.Invalid("category", "must be one of hair, skin, bridal"), "Service")
		return
	}
	services, err := h.store.List(r.Context(), category)
	if err != nil {
		writeFailure(w, r, h.logger, err, "Service")
		return
	}
	writeOK(w, http.StatusOK, "Services retrieved", envelope{"services": services})
}

func (h *ServiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	svc, err := h.store.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeFailure(w, r, h.logger, err, "Service")
		return
	}
	writeOK(w, http.StatusOK, "Service retrieved", envelope{"service": svc})
}

func (h *ServiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req validation.ServiceRequest
	if !decode(w, r, &req) {
		return
	}
	svc, err := validation.Service(req)
	if err != nil {
		writeFailure(w, r, h.logger, err, "Service")
		return
	}
	created, err := h.store.Create(r.Context(), svc)
	if err != nil {
		writeFailure(w, r, h.logger, err, "Service")
		return
	}
	writeOK(w, http.StatusCreated, "Service created", envelope{"service": created})
}

func (h *ServiceHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req validation.ServiceRequest
	if !decode(w, r, &req) {
		return
	}
	svc, err := validation.Service(req)
	if err != nil {
		writeFailure(w, r, h.logger, err, "Service")
		return
	}
	updated, err := h.store.Update(r.Context(), mux.Vars(r)["id"], svc)
	if err != nil {
		writeFailure(w, r, h.logger, err, "Service")
		return
	}
	writeOK(w, http.StatusOK, "Service updated", envelope{"service": updated})
}

func (h *ServiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeFailure(w, r, h.logger, err, "Service")
		return
	}
	writeOK(w, http.StatusOK, "Service deleted", nil)
}
