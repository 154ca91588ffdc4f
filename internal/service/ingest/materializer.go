package ingest

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/jwalitptl/salon-ingest/internal/model"
	"github.com/jwalitptl/salon-ingest/internal/parser"
	"github.com/jwalitptl/salon-ingest/internal/repository"
	apperrors "github.com/jwalitptl/salon-ingest/pkg/errors"
)

// Materializer persists resolved candidates as bookings together with their
// booking.ingested outbox event.
type Materializer struct {
	bookings repository.BookingRepository
}

func NewMaterializer(bookings repository.BookingRepository) *Materializer {
	return &Materializer{bookings: bookings}
}

// DurationMinutes is endTime minus startTime; a non-positive range is
// INVALID_TIME_RANGE.
func DurationMinutes(cand *model.ParsedCandidate) (int, error) {
	start, err := parser.ClockMinutes(cand.StartTime)
	if err != nil {
		return 0, apperrors.MalformedNotification("start time: %v", err)
	}
	end, err := parser.ClockMinutes(cand.EndTime)
	if err != nil {
		return 0, apperrors.MalformedNotification("end time: %v", err)
	}
	if end <= start {
		return 0, apperrors.InvalidTimeRange(cand.StartTime, cand.EndTime)
	}
	return end - start, nil
}

// Materialize writes the booking. The second return value is true when the
// insert lost a race against a concurrent delivery of the same event and the
// returned booking is the one that won.
func (m *Materializer) Materialize(ctx context.Context, tenantID uuid.UUID, cand *model.ParsedCandidate, res *Resolution, eventID string) (*model.Booking, bool, error) {
	duration, err := DurationMinutes(cand)
	if err != nil {
		return nil, false, err
	}

	b := &model.Booking{
		Base:            model.Base{ID: uuid.New(), TenantID: tenantID},
		ClientID:        res.ClientID,
		EmployeeID:      res.EmployeeID,
		ServiceID:       res.ServiceID,
		Date:            cand.Date,
		StartTime:       cand.StartTime,
		DurationMinutes: duration,
		PriceCents:      cand.PriceCents,
		Status:          model.BookingStatusScheduled,
		Source:          model.BookingSourceExternalProvider,
	}
	if eventID != "" {
		id := eventID
		b.ProviderEventID = &id
		b.Notes = model.EventMarker(eventID)
	}

	payload, err := json.Marshal(model.BookingIngestedPayload{
		BookingID:       b.ID,
		TenantID:        tenantID,
		ClientID:        b.ClientID,
		EmployeeID:      b.EmployeeID,
		ServiceID:       b.ServiceID,
		Date:            b.Date.Format(model.DateLayout),
		StartTime:       b.StartTime,
		DurationMinutes: b.DurationMinutes,
		ProviderEventID: eventID,
	})
	if err != nil {
		return nil, false, apperrors.NewInternal(err)
	}
	event := &model.OutboxEvent{
		TenantID:  tenantID,
		EventType: model.EventTypeBookingIngested,
		Payload:   payload,
	}

	err = m.bookings.Create(ctx, b, event)
	if errors.Is(err, repository.ErrConflict) && eventID != "" {
		winner, findErr := m.bookings.FindByEventID(ctx, tenantID, eventID)
		if findErr != nil {
			return nil, false, apperrors.StoreFault("reload conflicting booking", findErr)
		}
		return winner, true, nil
	}
	if err != nil {
		return nil, false, apperrors.StoreFault("create booking", err)
	}
	return b, false, nil
}
