package ticket

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
	"github.com/skip2/go-qrcode"

	"github.com/Shivanand-hulikatti/event-reservations/internal/model"
)

const (
	pageWidth = 210.0 // A4, mm
	margin    = 20.0
	qrSize    = 60.0
)

// document is everything printed on a ticket.
type document struct {
	ReservationID string
	Participant   string
	Event         *model.Event
	QRPayload     string
}

// render writes an A4 ticket to w.
func render(w io.Writer, d document) error {
	png, err := qrcode.Encode(d.QRPayload, qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("encode qr: %w", err)
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Event ticket", true)
	pdf.SetMargins(margin, margin, margin)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	content := pageWidth - 2*margin

	pdf.SetFont("Helvetica", "B", 28)
	pdf.CellFormat(content, 16, "EVENT TICKET", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(content, 6, tr("Reservation ID: "+d.ReservationID), "", 1, "C", false, 0, "")
	pdf.Ln(8)

	section := func(title string) {
		pdf.SetFont("Helvetica", "B", 16)
		pdf.CellFormat(content, 9, title, "B", 1, "L", false, 0, "")
		pdf.Ln(2)
		pdf.SetFont("Helvetica", "", 12)
	}
	line := func(label, value string) {
		pdf.CellFormat(content, 7, tr(label+": "+value), "", 1, "L", false, 0, "")
	}

	section("PARTICIPANT")
	line("Name", d.Participant)
	pdf.Ln(6)

	e := d.Event
	section("EVENT DETAILS")
	line("Title", e.Title)
	pdf.MultiCell(content, 6, tr("Description: "+e.Description), "", "L", false)
	line("Location", e.Location)
	line("Date", e.Date.Format("2 January 2006"))
	line("Time", e.Time)
	pdf.Ln(8)

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", opts, bytes.NewReader(png))
	pdf.ImageOptions("qr", (pageWidth-qrSize)/2, pdf.GetY(), qrSize, qrSize, true, opts, 0, "")

	pdf.SetFont("Helvetica", "I", 10)
	pdf.CellFormat(content, 6, "This ticket confirms your reservation for the event.", "", 1, "C", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}
