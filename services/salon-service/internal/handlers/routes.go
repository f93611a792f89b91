package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

type API struct {
	Bookings *BookingHandler
	Slots    *SlotHandler
	Services *ServiceHandler
	Reviews  *ReviewHandler
}

// Register mounts the API under /api on r.
func (a API) Register(r *mux.Router) {
	api := r.PathPrefix("/api").Subrouter()

	b := api.PathPrefix("/bookings").Subrouter()
	b.HandleFunc("", a.Bookings.Create).Methods(http.MethodPost)
	b.HandleFunc("", a.Bookings.List).Methods(http.MethodGet)
	b.HandleFunc("/booked-slots", a.Bookings.BookedSlots).Methods(http.MethodGet)
	b.HandleFunc("/{id}", a.Bookings.Get).Methods(http.MethodGet)
	b.HandleFunc("/{id}/status", a.Bookings.UpdateStatus).Methods(http.MethodPatch)
	b.HandleFunc("/{id}/cancel", a.Bookings.Cancel).Methods(http.MethodPatch)
	b.HandleFunc("/{id}", a.Bookings.Delete).Methods(http.MethodDelete)

	s := api.PathPrefix("/slots/{date}").Subrouter()
	s.HandleFunc("", a.Slots.Get).Methods(http.MethodGet)
	s.HandleFunc("/block", a.Slots.Block).Methods(http.MethodPost)
	s.HandleFunc("/unblock", a.Slots.Unblock).Methods(http.MethodPost)
	s.HandleFunc("/repair", a.Slots.Repair).Methods(http.MethodPost)

	svc := api.PathPrefix("/services").Subrouter()
	svc.HandleFunc("", a.Services.List).Methods(http.MethodGet)
	svc.HandleFunc("", a.Services.Create).Methods(http.MethodPost)
	svc.HandleFunc("/{id}", a.Services.Get).Methods(http.MethodGet)
	svc.HandleFunc("/{id}", a.Services.Update).Methods(http.MethodPut)
	svc.HandleFunc("/{id}", a.Services.Delete).Methods(http.MethodDelete)

	rv := api.PathPrefix("/reviews").Subrouter()
	rv.HandleFunc("", a.Reviews.List).Methods(http.MethodGet)
	rv.HandleFunc("", a.Reviews.Create).Methods(http.MethodPost)
	rv.HandleFunc("/all", a.Reviews.ListAll).Methods(http.MethodGet)
	rv.HandleFunc("/{id}/approve", a.Reviews.Approve).Methods(http.MethodPatch)
	rv.HandleFunc("/{id}", a.Reviews.Delete).Methods(http.MethodDelete)

	api.NotFoundHandler = http.HandlerFunc(notFound)
	r.NotFoundHandler = http.HandlerFunc(notFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)
}
