package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/Shivanand-hulikatti/event-reservations/internal/model"
	"github.com/Shivanand-hulikatti/event-reservations/internal/service"
	"github.com/Shivanand-hulikatti/event-reservations/internal/ticket"
)

// Deps is everything the router needs.
type Deps struct {
	Auth         *service.AuthService
	Events       *service.EventService
	Reservations *service.ReservationService
	Tickets      *ticket.Service
	CORSOrigins  []string
	Logger       *slog.Logger
}

// NewRouter builds the HTTP API.
func NewRouter(d Deps) http.Handler {
	authH := NewAuthHandler(d.Auth, d.Logger)
	eventH := NewEventHandler(d.Events, d.Logger)
	resH := NewReservationHandler(d.Reservations, d.Logger)
	ticketH := NewTicketHandler(d.Tickets, d.Logger)

	authenticated := Authenticate(d.Auth, d.Logger)
	adminOnly := RequireRole(model.RoleAdmin)

	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(Logger(d.Logger))        // structured access log
	r.Use(CORS(d.CORSOrigins))

	// Health
	r.Get("/health", HealthCheck)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authH.Register)
		r.Post("/login", authH.Login)
		r.Group(func(r chi.Router) {
			r.Use(authenticated)
			r.Post("/refresh", authH.Refresh)
			r.Get("/me", authH.Me)
		})
	})

	r.Route("/events", func(r chi.Router) {
		r.Get("/", eventH.ListEvents)
		r.Get("/{id}", eventH.GetEvent)

		r.Group(func(r chi.Router) {
			r.Use(authenticated, adminOnly)
			r.Get("/admin", eventH.ListAdminEvents)
			r.Get("/admin/{id}", eventH.GetAdminEvent)
			r.Get("/dashboard/stats", eventH.Dashboard)
			r.Get("/{id}/stats", eventH.EventStats)
			r.Get("/{id}/reservations", resH.ListByEvent)
			r.Post("/", eventH.CreateEvent)
			r.Patch("/{id}", eventH.UpdateEvent)
			r.Patch("/{id}/publish", eventH.PublishEvent)
			r.Patch("/{id}/cancel", eventH.CancelEvent)
			r.Delete("/{id}", eventH.DeleteEvent)
		})
	})

	r.Route("/reservations", func(r chi.Router) {
		r.Use(authenticated)
		r.Post("/", resH.CreateReservation)
		r.Get("/my", resH.ListMine)
		r.Get("/{id}", resH.GetReservation)
		r.Patch("/{id}/cancel", resH.Cancel)

		r.Group(func(r chi.Router) {
			r.Use(adminOnly)
			r.Get("/", resH.ListAll)
			r.Patch("/{id}", resH.UpdateStatus)
			r.Patch("/{id}/confirm", resH.Confirm)
			r.Patch("/{id}/refuse", resH.Refuse)
			r.Patch("/{id}/cancel-admin", resH.CancelByAdmin)
			r.Delete("/{id}", resH.DeleteReservation)
		})
	})

	r.Route("/tickets", func(r chi.Router) {
		r.Get("/download/{fileName}", ticketH.Download)
		r.Get("/view/{fileName}", ticketH.View)
		r.With(authenticated).Post("/generate/{reservationId}", ticketH.Generate)
		r.With(authenticated, adminOnly).Post("/verify", ticketH.Verify)
	})

	return r
}
