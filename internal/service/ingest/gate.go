package ingest

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/jwalitptl/salon-ingest/internal/model"
	"github.com/jwalitptl/salon-ingest/internal/repository"
	apperrors "github.com/jwalitptl/salon-ingest/pkg/errors"
)

// Gate answers whether a provider event has already become a booking.
type Gate struct {
	bookings repository.BookingRepository
}

func NewGate(bookings repository.BookingRepository) *Gate {
	return &Gate{bookings: bookings}
}

// CheckExisting returns the booking already materialized for eventID in the
// tenant, or nil. It is read-only and never looks at the notification body.
func (g *Gate) CheckExisting(ctx context.Context, tenantID uuid.UUID, eventID string) (*model.Booking, error) {
	b, err := g.bookings.FindByEventID(ctx, tenantID, eventID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.StoreFault("idempotency check", err)
	}
	return b, nil
}
