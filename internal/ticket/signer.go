package ticket

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/Shivanand-hulikatti/event-reservations/internal/model"
)

// Signer produces and checks the payload encoded in a ticket's QR code:
//
//	reservation:<id>;event:<eventId>;signature:<hex HMAC-SHA256>
type Signer struct {
	key []byte
}

// NewSigner constructs a Signer keyed with key.
func NewSigner(key string) *Signer {
	return &Signer{key: []byte(key)}
}

// Payload is a decoded, signature-checked QR payload.
type Payload struct {
	ReservationID string
	EventID       string
}

func (s *Signer) mac(reservationID, eventID string) string {
	h := hmac.New(sha256.New, s.key)
	fmt.Fprintf(h, "reservation:%s;event:%s", reservationID, eventID)
	return hex.EncodeToString(h.Sum(nil))
}

// Sign returns the QR payload for a reservation.
func (s *Signer) Sign(reservationID, eventID string) string {
	return fmt.Sprintf("reservation:%s;event:%s;signature:%s", reservationID, eventID, s.mac(reservationID, eventID))
}

// Parse decodes raw and verifies its signature.
func (s *Signer) Parse(raw string) (Payload, error) {
	fields := make(map[string]string, 3)
	for _, part := range strings.Split(strings.TrimSpace(raw), ";") {
		k, v, ok := strings.Cut(part, ":")
		if !ok {
			return Payload{}, model.Invalid("malformed ticket payload")
		}
		fields[k] = v
	}
	p := Payload{ReservationID: fields["reservation"], EventID: fields["event"]}
	sig := fields["signature"]
	if len(fields) != 3 || p.ReservationID == "" || p.EventID == "" || sig == "" {
		return Payload{}, model.Invalid("malformed ticket payload")
	}
	if !hmac.Equal([]byte(sig), []byte(s.mac(p.ReservationID, p.EventID))) {
		return Payload{}, model.Forbidden("invalid ticket signature")
	}
	return p, nil
}
