// Package ticket generates the durable ticket artifact for a committed
// booking: a QR code PNG encoding the booking reference and its seats.
// Generation runs after the booking transaction commits and is
// best-effort; a failure leaves the booking valid with no artifact.
package ticket

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/iliyamo/event-ticket-booking/internal/model"
)

// Generator writes QR code images under Dir and returns URL paths rooted
// at PublicPath (e.g. "/uploads/qrcodes").
type Generator struct {
	Dir        string
	PublicPath string
}

// NewGenerator returns a Generator writing into dir.
func NewGenerator(dir, publicPath string) *Generator {
	return &Generator{Dir: dir, PublicPath: publicPath}
}

type payload struct {
	BookingID uint64   `json:"booking_id"`
	Reference string   `json:"booking_reference"`
	EventID   uint64   `json:"event_id"`
	UserID    uint64   `json:"user_id"`
	SeatIDs   []uint64 `json:"seat_ids"`
}

// Generate renders the QR artifact for a booking and returns its public
// reference path.
func (g *Generator) Generate(b *model.Booking, seatIDs []uint64) (string, error) {
	if err := os.MkdirAll(g.Dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", g.Dir, err)
	}
	data, err := json.Marshal(payload{
		BookingID: b.ID,
		Reference: b.Reference,
		EventID:   b.EventID,
		UserID:    b.UserID,
		SeatIDs:   seatIDs,
	})
	if err != nil {
		return "", err
	}
	filename := fmt.Sprintf("booking-%d.png", b.ID)
	if err := qrcode.WriteFile(string(data), qrcode.Medium, 256, filepath.Join(g.Dir, filename)); err != nil {
		return "", fmt.Errorf("write qr code: %w", err)
	}
	return g.PublicPath + "/" + filename, nil
}
