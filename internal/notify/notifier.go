package notify

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"github.com/Shivanand-hulikatti/event-reservations/internal/model"
)

// md renders message bodies. Raw HTML in the input (an event title, say) is
// escaped because WithUnsafe is not set.
var md = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// ReservationNotifier turns reservation changes into e-mails.
type ReservationNotifier struct {
	sender Sender
}

// NewReservationNotifier constructs a ReservationNotifier.
func NewReservationNotifier(sender Sender) *ReservationNotifier {
	return &ReservationNotifier{sender: sender}
}

// ReservationChanged mails the participant of v about its current status.
// Statuses nobody needs to hear about, and participants without an address,
// are skipped.
func (n *ReservationNotifier) ReservationChanged(ctx context.Context, v *model.ReservationView) error {
	if v.Participant == nil || v.Participant.Email == "" || v.Event == nil {
		return nil
	}

	var verdict, next string
	switch v.Status {
	case model.ReservationConfirmed:
		verdict = "confirmed"
		next = "You can now download your ticket from **My reservations**."
	case model.ReservationRefused:
		verdict = "declined"
		next = "The organiser could not accept this reservation."
	case model.ReservationCanceled:
		verdict = "canceled"
		next = "The organiser canceled this reservation."
	default:
		return nil
	}

	body, err := render(v, verdict, next)
	if err != nil {
		return err
	}
	return n.sender.Send(ctx, Message{
		To:      []string{v.Participant.Email},
		Subject: fmt.Sprintf("Your reservation for %s was %s", v.Event.Title, verdict),
		HTML:    body,
	})
}

func render(v *model.ReservationView, verdict, next string) (string, error) {
	var src strings.Builder
	fmt.Fprintf(&src, "Hi %s,\n\n", v.Participant.Name)
	fmt.Fprintf(&src, "Your reservation for **%s** was **%s**.\n\n", v.Event.Title, verdict)
	fmt.Fprintf(&src, "- Date: %s at %s\n", v.Event.Date.Format("Monday 2 January 2006"), v.Event.Time)
	fmt.Fprintf(&src, "- Location: %s\n", v.Event.Location)
	fmt.Fprintf(&src, "- Reservation: `%s`\n\n", v.ID)
	src.WriteString(next)
	src.WriteString("\n")

	var out bytes.Buffer
	if err := md.Convert([]byte(src.String()), &out); err != nil {
		return "", fmt.Errorf("render notification: %w", err)
	}
	return out.String(), nil
}
