// Package ticket renders PDF tickets for confirmed reservations and checks
// the signed QR codes printed on them.
package ticket

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/Shivanand-hulikatti/event-reservations/internal/model"
)

var fileNamePattern = regexp.MustCompile(`^ticket_[A-Za-z0-9-]+_[0-9]+\.pdf$`)

// ReservationReader is the slice of the reservation store tickets need.
type ReservationReader interface {
	GetView(ctx context.Context, id string) (*model.ReservationView, error)
}

// EventReader is the slice of the event store tickets need.
type EventReader interface {
	GetByID(ctx context.Context, id string) (*model.Event, error)
}

// Ticket describes a generated file.
type Ticket struct {
	FileName    string `json:"fileName"`
	DownloadURL string `json:"downloadUrl"`
	ViewURL     string `json:"viewUrl"`
}

// Verification is the outcome of scanning a valid ticket.
type Verification struct {
	Valid       bool                  `json:"valid"`
	Reservation model.ReservationView `json:"reservation"`
}

// Service generates and serves ticket files.
type Service struct {
	reservations ReservationReader
	events       EventReader
	signer       *Signer
	dir          string
	logger       *slog.Logger
	now          func() time.Time
}

// NewService constructs a Service writing into dir.
func NewService(reservations ReservationReader, events EventReader, signer *Signer, dir string, logger *slog.Logger) *Service {
	return &Service{
		reservations: reservations,
		events:       events,
		signer:       signer,
		dir:          dir,
		logger:       logger,
		now:          time.Now,
	}
}

// Generate renders a ticket for a CONFIRMED reservation. Only the
// reservation's participant or an admin may do so.
func (s *Service) Generate(ctx context.Context, caller model.Identity, reservationID string) (*Ticket, error) {
	v, err := s.reservations.GetView(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && v.ParticipantID != caller.UserID {
		return nil, model.Forbidden("you can only generate tickets for your own reservations")
	}
	if v.Status != model.ReservationConfirmed {
		return nil, model.InvalidState("reservation must be confirmed to generate ticket")
	}
	e, err := s.events.GetByID(ctx, v.EventID)
	if err != nil {
		return nil, err
	}

	participant := v.ParticipantID
	if v.Participant != nil {
		participant = v.Participant.Name
	}

	name := fmt.Sprintf("ticket_%s_%d.pdf", v.ID, s.now().UnixMilli())
	if err := s.write(name, document{
		ReservationID: v.ID,
		Participant:   participant,
		Event:         e,
		QRPayload:     s.signer.Sign(v.ID, v.EventID),
	}); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "ticket_generated", "reservation_id", v.ID, "file", name)
	return &Ticket{
		FileName:    name,
		DownloadURL: "/tickets/download/" + name,
		ViewURL:     "/tickets/view/" + name,
	}, nil
}

// write renders into a temporary file and renames it into place so readers
// never see a partial PDF.
func (s *Service) write(name string, d document) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create ticket dir: %w", err)
	}
	tmp, err := os.CreateTemp(s.dir, ".ticket-*.tmp")
	if err != nil {
		return fmt.Errorf("create ticket file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := render(tmp, d); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close ticket file: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("store ticket file: %w", err)
	}
	return nil
}

// Lookup returns the path of a generated ticket. Names that could not have
// been produced by Generate are reported as missing.
func (s *Service) Lookup(fileName string) (string, error) {
	if !fileNamePattern.MatchString(fileName) {
		return "", model.NotFound("ticket file not found")
	}
	path := filepath.Join(s.dir, fileName)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", model.NotFound("ticket file not found")
		}
		return "", fmt.Errorf("stat ticket: %w", err)
	}
	if !info.Mode().IsRegular() {
		return "", model.NotFound("ticket file not found")
	}
	return path, nil
}

// Verify checks a scanned QR payload: the signature must match and the
// reservation must still be CONFIRMED.
func (s *Service) Verify(ctx context.Context, caller model.Identity, payload string) (*Verification, error) {
	if !caller.IsAdmin() {
		return nil, model.Forbidden("admin access required")
	}
	p, err := s.signer.Parse(payload)
	if err != nil {
		return nil, err
	}
	v, err := s.reservations.GetView(ctx, p.ReservationID)
	if err != nil {
		return nil, err
	}
	if v.EventID != p.EventID {
		return nil, model.Forbidden("ticket does not match reservation")
	}
	if v.Status != model.ReservationConfirmed {
		return nil, model.InvalidState("reservation is no longer confirmed")
	}
	return &Verification{Valid: true, Reservation: *v}, nil
}
