package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/event-reservations/internal/ticket"
)

// TicketHandler serves ticket generation, download and verification.
type TicketHandler struct {
	svc    *ticket.Service
	logger *slog.Logger
}

// NewTicketHandler constructs a TicketHandler.
func NewTicketHandler(svc *ticket.Service, logger *slog.Logger) *TicketHandler {
	return &TicketHandler{svc: svc, logger: logger}
}

type verifyRequest struct {
	Payload string `json:"payload"`
}

// Generate handles POST /tickets/generate/{reservationId}
func (h *TicketHandler) Generate(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.Generate(r.Context(), identityFrom(r), chi.URLParam(r, "reservationId"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Ticket generated successfully",
		"data":    t,
	})
}

// Download handles GET /tickets/download/{fileName}
func (h *TicketHandler) Download(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "attachment")
}

// View handles GET /tickets/view/{fileName}
func (h *TicketHandler) View(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "inline")
}

func (h *TicketHandler) serve(w http.ResponseWriter, r *http.Request, disposition string) {
	name := chi.URLParam(r, "fileName")
	path, err := h.svc.Lookup(name)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, name))
	http.ServeFile(w, r, path)
}

// Verify handles POST /tickets/verify
// Body: {"payload": "<scanned QR text>"}
func (h *TicketHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	v, err := h.svc.Verify(r.Context(), identityFrom(r), req.Payload)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}
