package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStatus(t *testing.T) {
	for _, s := range []string{"booked", "seated", "finished", "cancelled"} {
		st, ok := ParseStatus(s)
		assert.True(t, ok, s)
		assert.Equal(t, Status(s), st)
	}
	for _, s := range []string{"", "unknown", "BOOKED", "no_show"} {
		_, ok := ParseStatus(s)
		assert.False(t, ok, s)
	}
}

func TestTransitionTable(t *testing.T) {
	assert.True(t, CanTransition(StatusBooked, StatusSeated, TriggerSeat))
	assert.True(t, CanTransition(StatusBooked, StatusCancelled, TriggerStatusUpdate))
	assert.True(t, CanTransition(StatusSeated, StatusFinished, TriggerClear))

	// derived edges cannot be taken by a bare status update
	assert.False(t, CanTransition(StatusBooked, StatusSeated, TriggerStatusUpdate))
	assert.False(t, CanTransition(StatusSeated, StatusFinished, TriggerStatusUpdate))

	all := []Status{StatusBooked, StatusSeated, StatusFinished, StatusCancelled}
	triggers := []Trigger{TriggerSeat, TriggerClear, TriggerStatusUpdate}
	for _, from := range all {
		for _, by := range triggers {
			// nothing ever re-enters booked
			assert.False(t, CanTransition(from, StatusBooked, by))
		}
	}
	for _, to := range all {
		for _, by := range triggers {
			assert.False(t, CanTransition(StatusFinished, to, by))
			assert.False(t, CanTransition(StatusCancelled, to, by))
		}
	}
	assert.True(t, StatusFinished.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, StatusBooked.Terminal())
}
