package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/event-reservations/internal/model"
	"github.com/Shivanand-hulikatti/event-reservations/internal/service"
)

// ReservationHandler serves reservation creation, review and cancellation.
type ReservationHandler struct {
	svc    *service.ReservationService
	logger *slog.Logger
}

// NewReservationHandler constructs a ReservationHandler.
func NewReservationHandler(svc *service.ReservationService, logger *slog.Logger) *ReservationHandler {
	return &ReservationHandler{svc: svc, logger: logger}
}

// CreateReservation handles POST /reservations
func (h *ReservationHandler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	var req model.CreateReservationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	res, err := h.svc.Create(r.Context(), identityFrom(r), req.EventID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// ListMine handles GET /reservations/my
func (h *ReservationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	views, err := h.svc.ListMine(r.Context(), identityFrom(r))
	h.writeViews(w, r, views, err)
}

// ListAll handles GET /reservations
func (h *ReservationHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	views, err := h.svc.ListAll(r.Context(), identityFrom(r))
	h.writeViews(w, r, views, err)
}

// ListByEvent handles GET /events/{id}/reservations
func (h *ReservationHandler) ListByEvent(w http.ResponseWriter, r *http.Request) {
	views, err := h.svc.ListByEvent(r.Context(), identityFrom(r), chi.URLParam(r, "id"))
	h.writeViews(w, r, views, err)
}

// GetReservation handles GET /reservations/{id}
func (h *ReservationHandler) GetReservation(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Get(r.Context(), identityFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// UpdateStatus handles PATCH /reservations/{id}
// Body: {"status": "CONFIRMED" | "REFUSED"}
func (h *ReservationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateReservationStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	h.transition(w, r, func(ctx context.Context, caller model.Identity, id string) (*model.Reservation, error) {
		return h.svc.UpdateStatus(ctx, caller, id, req.Status)
	})
}

// Confirm handles PATCH /reservations/{id}/confirm
func (h *ReservationHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Confirm)
}

// Refuse handles PATCH /reservations/{id}/refuse
func (h *ReservationHandler) Refuse(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Refuse)
}

// CancelByAdmin handles PATCH /reservations/{id}/cancel-admin
func (h *ReservationHandler) CancelByAdmin(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.CancelByAdmin)
}

// Cancel handles PATCH /reservations/{id}/cancel
// A participant withdrawing their own reservation.
func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.CancelByParticipant)
}

// DeleteReservation handles DELETE /reservations/{id}
func (h *ReservationHandler) DeleteReservation(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Remove(r.Context(), identityFrom(r), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type transitionFunc func(ctx context.Context, caller model.Identity, id string) (*model.Reservation, error)

func (h *ReservationHandler) transition(w http.ResponseWriter, r *http.Request, fn transitionFunc) {
	res, err := fn(r.Context(), identityFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *ReservationHandler) writeViews(w http.ResponseWriter, r *http.Request, views []model.ReservationView, err error) {
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	if views == nil {
		views = []model.ReservationView{}
	}
	writeJSON(w, http.StatusOK, views)
}
