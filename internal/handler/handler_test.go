package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/event-reservations/internal/auth"
	"github.com/Shivanand-hulikatti/event-reservations/internal/model"
	"github.com/Shivanand-hulikatti/event-reservations/internal/repository"
	"github.com/Shivanand-hulikatti/event-reservations/internal/service"
	"github.com/Shivanand-hulikatti/event-reservations/internal/ticket"
)

type testServer struct {
	t       *testing.T
	handler http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := repository.NewMemoryStore()
	tokens := auth.NewTokens("test-secret", time.Hour, 10*time.Minute)
	authSvc := service.NewAuthService(store.Users(), tokens, logger)
	if err := authSvc.SeedAdmin(context.Background(), "Admin", "admin@event.com", "admin123"); err != nil {
		t.Fatalf("SeedAdmin: %v", err)
	}

	h := NewRouter(Deps{
		Auth:         authSvc,
		Events:       service.NewEventService(store.Events(), store.Reservations(), logger),
		Reservations: service.NewReservationService(store.Events(), store.Reservations(), nil, logger),
		Tickets: ticket.NewService(store.Reservations(), store.Events(), ticket.NewSigner("k"),
			filepath.Join(t.TempDir(), "tickets"), logger),
		CORSOrigins: []string{"http://localhost:3000"},
		Logger:      logger,
	})
	return &testServer{t: t, handler: h}
}

// do sends a request and decodes a JSON response into out when out is non-nil.
func (s *testServer) do(method, path, token string, body any, out any) *httptest.ResponseRecorder {
	s.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			s.t.Fatal(err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	if out != nil && rec.Code < 300 {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			s.t.Fatalf("%s %s: decode %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec
}

func (s *testServer) expect(rec *httptest.ResponseRecorder, status int) {
	s.t.Helper()
	if rec.Code != status {
		s.t.Fatalf("status = %d, want %d; body = %s", rec.Code, status, rec.Body.String())
	}
}

func (s *testServer) login(email, password string) string {
	s.t.Helper()
	var resp model.AuthResponse
	s.expect(s.do(http.MethodPost, "/auth/login", "", model.LoginRequest{Email: email, Password: password}, &resp), http.StatusOK)
	return resp.AccessToken
}

func (s *testServer) register(name, email string) string {
	s.t.Helper()
	var resp model.AuthResponse
	s.expect(s.do(http.MethodPost, "/auth/register", "", model.RegisterRequest{Name: name, Email: email, Password: "secret1"}, &resp), http.StatusCreated)
	return resp.AccessToken
}

func (s *testServer) createEvent(token string, capacity int, status model.EventStatus) model.Event {
	s.t.Helper()
	var e model.Event
	s.expect(s.do(http.MethodPost, "/events", token, model.CreateEventRequest{
		Title: "Go meetup", Description: "Talks", Date: "2030-06-01", Time: "18:00",
		Location: "Hall A", MaxCapacity: capacity, Status: status,
	}, &e), http.StatusCreated)
	return e
}

func errorMessage(rec *httptest.ResponseRecorder) string {
	var e model.ErrorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &e)
	return e.Error
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodGet, "/health", "", nil, nil)
	s.expect(rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)

	s.expect(s.do(http.MethodGet, "/auth/me", "", nil, nil), http.StatusUnauthorized)
	s.expect(s.do(http.MethodGet, "/auth/me", "garbage", nil, nil), http.StatusUnauthorized)

	token := s.register("Ana", "ana@example.com")
	var me model.UserSummary
	s.expect(s.do(http.MethodGet, "/auth/me", token, nil, &me), http.StatusOK)
	if me.Email != "ana@example.com" || me.Role != model.RoleParticipant {
		t.Fatalf("me = %+v", me)
	}

	var refreshed model.AuthResponse
	s.expect(s.do(http.MethodPost, "/auth/refresh", token, nil, &refreshed), http.StatusOK)
	if refreshed.AccessToken != token {
		t.Fatalf("fresh token should be returned unchanged")
	}

	rec := s.do(http.MethodPost, "/auth/register", "", model.RegisterRequest{Name: "Ana", Email: "ana@example.com", Password: "secret1"}, nil)
	s.expect(rec, http.StatusBadRequest)

	s.expect(s.do(http.MethodPost, "/auth/login", "", model.LoginRequest{Email: "ana@example.com", Password: "nope!!"}, nil), http.StatusUnauthorized)

	rec = s.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "a", "password": "b", "extra": "x"}, nil)
	s.expect(rec, http.StatusBadRequest)
}

func TestEventEndpoints(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("admin@event.com", "admin123")
	participant := s.register("Ana", "ana@example.com")

	s.expect(s.do(http.MethodPost, "/events", participant, model.CreateEventRequest{Title: "x"}, nil), http.StatusForbidden)
	s.expect(s.do(http.MethodPost, "/events", "", model.CreateEventRequest{Title: "x"}, nil), http.StatusUnauthorized)

	draft := s.createEvent(admin, 10, "")
	if draft.Status != model.EventDraft {
		t.Fatalf("status = %s", draft.Status)
	}

	// Drafts are hidden from the public.
	s.expect(s.do(http.MethodGet, "/events/"+draft.ID, "", nil, nil), http.StatusNotFound)
	var list []model.Event
	s.expect(s.do(http.MethodGet, "/events", "", nil, &list), http.StatusOK)
	if len(list) != 0 {
		t.Fatalf("public list = %+v", list)
	}

	var got model.Event
	s.expect(s.do(http.MethodGet, "/events/admin/"+draft.ID, admin, nil, &got), http.StatusOK)

	s.expect(s.do(http.MethodPatch, "/events/"+draft.ID+"/publish", admin, nil, &got), http.StatusOK)
	if got.Status != model.EventPublished {
		t.Fatalf("publish status = %s", got.Status)
	}
	s.expect(s.do(http.MethodGet, "/events/"+draft.ID, "", nil, &got), http.StatusOK)

	title := "Renamed"
	s.expect(s.do(http.MethodPatch, "/events/"+draft.ID, admin, model.UpdateEventRequest{Title: &title}, &got), http.StatusOK)
	if got.Title != title {
		t.Fatalf("title = %q", got.Title)
	}

	var stats model.EventStats
	s.expect(s.do(http.MethodGet, "/events/"+draft.ID+"/stats", admin, nil, &stats), http.StatusOK)
	if stats.Remaining != 10 {
		t.Fatalf("stats = %+v", stats)
	}

	var dash model.DashboardStats
	s.expect(s.do(http.MethodGet, "/events/dashboard/stats", admin, nil, &dash), http.StatusOK)
	if dash.TotalEvents != 1 || dash.UpcomingEvents != 1 {
		t.Fatalf("dashboard = %+v", dash)
	}

	s.expect(s.do(http.MethodPatch, "/events/"+draft.ID+"/cancel", admin, nil, &got), http.StatusOK)
	rec := s.do(http.MethodPatch, "/events/"+draft.ID+"/publish", admin, nil, nil)
	s.expect(rec, http.StatusBadRequest)
	if errorMessage(rec) != "cannot publish a canceled event" {
		t.Fatalf("error = %q", errorMessage(rec))
	}

	s.expect(s.do(http.MethodDelete, "/events/"+draft.ID, admin, nil, nil), http.StatusNoContent)
	s.expect(s.do(http.MethodGet, "/events/admin/"+draft.ID, admin, nil, nil), http.StatusNotFound)
}

func TestReservationLifecycle(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("admin@event.com", "admin123")
	ana := s.register("Ana", "ana@example.com")
	ben := s.register("Ben", "ben@example.com")
	event := s.createEvent(admin, 1, model.EventPublished)

	var r1, r2 model.Reservation
	s.expect(s.do(http.MethodPost, "/reservations", ana, model.CreateReservationRequest{EventID: event.ID}, &r1), http.StatusCreated)
	s.expect(s.do(http.MethodPost, "/reservations", ben, model.CreateReservationRequest{EventID: event.ID}, &r2), http.StatusCreated)

	rec := s.do(http.MethodPost, "/reservations", ana, model.CreateReservationRequest{EventID: event.ID}, nil)
	s.expect(rec, http.StatusBadRequest)
	if errorMessage(rec) != "you already have a reservation for this event" {
		t.Fatalf("duplicate error = %q", errorMessage(rec))
	}
	s.expect(s.do(http.MethodPost, "/reservations", admin, model.CreateReservationRequest{EventID: event.ID}, nil), http.StatusForbidden)

	// Participants cannot review reservations.
	s.expect(s.do(http.MethodPatch, "/reservations/"+r1.ID+"/confirm", ana, nil, nil), http.StatusForbidden)

	var confirmed model.Reservation
	s.expect(s.do(http.MethodPatch, "/reservations/"+r1.ID+"/confirm", admin, nil, &confirmed), http.StatusOK)
	if confirmed.Status != model.ReservationConfirmed {
		t.Fatalf("status = %s", confirmed.Status)
	}
	rec = s.do(http.MethodPatch, "/reservations/"+r2.ID, admin, model.UpdateReservationStatusRequest{Status: model.ReservationConfirmed}, nil)
	s.expect(rec, http.StatusBadRequest)
	if errorMessage(rec) != "event is full" {
		t.Fatalf("full error = %q", errorMessage(rec))
	}

	var mine []model.ReservationView
	s.expect(s.do(http.MethodGet, "/reservations/my", ana, nil, &mine), http.StatusOK)
	if len(mine) != 1 || mine[0].Event == nil || mine[0].Event.ID != event.ID {
		t.Fatalf("my reservations = %+v", mine)
	}

	s.expect(s.do(http.MethodGet, "/reservations/"+r1.ID, ben, nil, nil), http.StatusForbidden)
	s.expect(s.do(http.MethodGet, "/reservations", ana, nil, nil), http.StatusForbidden)
	var all []model.ReservationView
	s.expect(s.do(http.MethodGet, "/reservations", admin, nil, &all), http.StatusOK)
	if len(all) != 2 {
		t.Fatalf("all = %d", len(all))
	}
	var byEvent []model.ReservationView
	s.expect(s.do(http.MethodGet, "/events/"+event.ID+"/reservations", admin, nil, &byEvent), http.StatusOK)
	if len(byEvent) != 2 || byEvent[0].Participant == nil {
		t.Fatalf("by event = %+v", byEvent)
	}

	var canceled model.Reservation
	s.expect(s.do(http.MethodPatch, "/reservations/"+r2.ID+"/cancel", ana, nil, nil), http.StatusForbidden)
	s.expect(s.do(http.MethodPatch, "/reservations/"+r2.ID+"/cancel", ben, nil, &canceled), http.StatusOK)
	if canceled.CanceledBy == nil || *canceled.CanceledBy != model.CanceledByParticipant {
		t.Fatalf("canceled = %+v", canceled)
	}
	s.expect(s.do(http.MethodPatch, "/reservations/"+r2.ID+"/cancel", ben, nil, nil), http.StatusBadRequest)

	s.expect(s.do(http.MethodDelete, "/reservations/"+r2.ID, admin, nil, nil), http.StatusNoContent)
	s.expect(s.do(http.MethodGet, "/reservations/"+r2.ID, admin, nil, nil), http.StatusNotFound)
}

func TestTicketEndpoints(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("admin@event.com", "admin123")
	ana := s.register("Ana", "ana@example.com")
	event := s.createEvent(admin, 5, model.EventPublished)

	var r model.Reservation
	s.expect(s.do(http.MethodPost, "/reservations", ana, model.CreateReservationRequest{EventID: event.ID}, &r), http.StatusCreated)

	rec := s.do(http.MethodPost, "/tickets/generate/"+r.ID, ana, nil, nil)
	s.expect(rec, http.StatusBadRequest)
	if errorMessage(rec) != "reservation must be confirmed to generate ticket" {
		t.Fatalf("error = %q", errorMessage(rec))
	}

	s.expect(s.do(http.MethodPatch, "/reservations/"+r.ID+"/confirm", admin, nil, nil), http.StatusOK)

	var generated struct {
		Data ticket.Ticket `json:"data"`
	}
	s.expect(s.do(http.MethodPost, "/tickets/generate/"+r.ID, ana, nil, &generated), http.StatusOK)
	if generated.Data.FileName == "" {
		t.Fatalf("no file name returned")
	}

	rec = s.do(http.MethodGet, generated.Data.DownloadURL, "", nil, nil)
	s.expect(rec, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment;") {
		t.Fatalf("Content-Disposition = %q", cd)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Fatalf("body is not a PDF")
	}

	rec = s.do(http.MethodGet, "/tickets/view/"+generated.Data.FileName, "", nil, nil)
	s.expect(rec, http.StatusOK)
	if cd := rec.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "inline;") {
		t.Fatalf("Content-Disposition = %q", cd)
	}

	s.expect(s.do(http.MethodGet, "/tickets/download/ticket_nope_1.pdf", "", nil, nil), http.StatusNotFound)
	s.expect(s.do(http.MethodGet, "/tickets/download/..%2F..%2Fetc%2Fpasswd", "", nil, nil), http.StatusNotFound)

	payload := ticket.NewSigner("k").Sign(r.ID, event.ID)
	s.expect(s.do(http.MethodPost, "/tickets/verify", ana, map[string]string{"payload": payload}, nil), http.StatusForbidden)
	var v ticket.Verification
	s.expect(s.do(http.MethodPost, "/tickets/verify", admin, map[string]string{"payload": payload}, &v), http.StatusOK)
	if !v.Valid || v.Reservation.ID != r.ID {
		t.Fatalf("verification = %+v", v)
	}
}

func TestCORS(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/events", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent || rec.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Fatalf("preflight: %d %v", rec.Code, rec.Header())
	}

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("unlisted origin allowed")
	}
}

func TestWriteServiceError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tests := []struct {
		err    error
		status int
		msg    string
	}{
		{model.NotFound("event not found"), http.StatusNotFound, "event not found"},
		{model.Forbidden("nope"), http.StatusForbidden, "nope"},
		{model.InvalidState("event is full"), http.StatusBadRequest, "event is full"},
		{model.Conflict("dup"), http.StatusBadRequest, "dup"},
		{model.Invalid("bad"), http.StatusBadRequest, "bad"},
		{model.Unauthenticated("who"), http.StatusUnauthorized, "who"},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError, "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeServiceError(rec, httptest.NewRequest(http.MethodGet, "/", nil), logger, tt.err)
			if rec.Code != tt.status || errorMessage(rec) != tt.msg {
				t.Fatalf("got %d %q, want %d %q", rec.Code, errorMessage(rec), tt.status, tt.msg)
			}
		})
	}
}
