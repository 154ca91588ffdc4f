package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOfUnwrapsChain(t *testing.T) {
	base := UnresolvedReference("employee", "no active employee named Ola")
	wrapped := fmt.Errorf("resolve: %w", base)

	assert.Equal(t, ErrUnresolvedReference, CodeOf(wrapped))
	assert.Equal(t, ErrInternal, CodeOf(stderrors.New("plain")))
}

func TestIsTriageable(t *testing.T) {
	assert.True(t, IsTriageable(MalformedNotification("line %d: bad", 2)))
	assert.True(t, IsTriageable(fmt.Errorf("x: %w", InvalidTimeRange("17:00", "16:00"))))
	assert.True(t, IsTriageable(UnresolvedReference("service", "none")))
	assert.False(t, IsTriageable(StoreFault("lookup", stderrors.New("conn reset"))))
	assert.False(t, IsTriageable(nil))
}

func TestAppErrorIsMatchesCode(t *testing.T) {
	err := fmt.Errorf("wrap: %w", StoreFault("insert booking", stderrors.New("boom")))

	assert.True(t, stderrors.Is(err, &AppError{Code: ErrStoreFault}))
	assert.False(t, stderrors.Is(err, &AppError{Code: ErrNotFound}))
}

func TestCodeNamesAndStatus(t *testing.T) {
	assert.Equal(t, "MALFORMED_NOTIFICATION", ErrMalformedNotification.String())
	assert.Equal(t, "TRANSPORT_ERROR", ErrBadRequest.String())
	assert.Equal(t, http.StatusBadRequest, ErrBadRequest.HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, ErrStoreFault.HTTPStatus())
	assert.Equal(t, "store: boom", StoreFault("store", stderrors.New("boom")).Error())
}

func TestPublicMessageDropsWrappedCause(t *testing.T) {
	err := fmt.Errorf("batch: %w", StoreFault("create booking", stderrors.New(`pq: duplicate key value violates unique constraint "bookings_pkey"`)))

	assert.Equal(t, "create booking", PublicMessage(err))
	assert.Contains(t, err.Error(), "pq:")
	assert.Equal(t, "internal server error", PublicMessage(stderrors.New("dial tcp 10.0.0.5:5432: connection refused")))
	assert.Equal(t, "internal server error", PublicMessage(&AppError{Code: ErrStoreFault}))
}
