package booking

import (
	"testing"
	"time"

	"github.com/bookingstack/service-reservation/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSlot(t *testing.T) {
	vienna := time.FixedZone("CET", 3600)
	s, err := NewSlot(time.Date(2021, 11, 11, 11, 10, 0, 0, vienna))
	require.NoError(t, err)

	assert.Equal(t, time.UTC, s.StartsAt().Location())
	assert.Equal(t, 10, s.StartsAt().Hour())
	assert.Equal(t, int64(1), s.Version())
	assert.False(t, s.IsPersisted())
	assert.True(t, s.IsAvailable())

	_, err = NewSlot(time.Time{})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSlot_ReserveAndRelease(t *testing.T) {
	s, err := NewSlot(time.Date(2021, 11, 11, 10, 10, 0, 0, time.UTC))
	require.NoError(t, err)

	require.NoError(t, s.Reserve("anna@example.com"))
	assert.Equal(t, StateReserved, s.State())
	assert.True(t, s.IsReservedBy("anna@example.com"))
	assert.Equal(t, int64(2), s.Version())

	err = s.Reserve("max@example.com")
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	err = s.Release("max@example.com")
	assert.ErrorIs(t, err, domain.ErrConflict)

	require.NoError(t, s.Release("anna@example.com"))
	assert.True(t, s.IsAvailable())
	assert.Equal(t, int64(3), s.Version())

	err = s.Release("anna@example.com")
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	err = s.Reserve("")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSlot_AssignID(t *testing.T) {
	s, err := NewSlot(time.Date(2021, 11, 11, 10, 10, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.ErrorIs(t, s.AssignID(0), domain.ErrValidation)
	require.NoError(t, s.AssignID(5))
	require.NoError(t, s.AssignID(5))
	assert.ErrorIs(t, s.AssignID(6), domain.ErrConflict)
	assert.Equal(t, uint(5), s.ID())
}

func TestSlot_Reschedule(t *testing.T) {
	s, err := NewSlot(time.Date(2021, 11, 11, 10, 10, 0, 0, time.UTC))
	require.NoError(t, err)

	later := time.Date(2021, 11, 12, 9, 0, 0, 0, time.UTC)
	require.NoError(t, s.Reschedule(later))
	assert.True(t, s.StartsAt().Equal(later))
	assert.Error(t, s.Reschedule(time.Time{}))
}

func TestSlotState_Transitions(t *testing.T) {
	assert.True(t, StateAvailable.CanTransitionTo(StateReserved))
	assert.True(t, StateReserved.CanTransitionTo(StateAvailable))
	assert.False(t, StateAvailable.CanTransitionTo(StateAvailable))
	assert.False(t, SlotState("expired").IsValid())
	assert.False(t, SlotState("expired").CanTransitionTo(StateAvailable))
}

func TestNormalize(t *testing.T) {
	lower, upper := Normalize(nil, nil)
	assert.True(t, lower.Equal(RangeFloor))
	assert.True(t, upper.Equal(RangeCeiling))

	from := time.Date(2021, 11, 1, 0, 0, 0, 0, time.FixedZone("CET", 3600))
	lower, upper = Normalize(&from, nil)
	assert.True(t, lower.Equal(from))
	assert.Equal(t, time.UTC, lower.Location())
	assert.True(t, upper.Equal(RangeCeiling))
}
