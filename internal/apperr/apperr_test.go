package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "not found", err: ErrMatchNotFound, expected: http.StatusNotFound},
		{name: "forbidden", err: ErrEditForbidden, expected: http.StatusForbidden},
		{name: "conflict", err: ErrAlreadyRated, expected: http.StatusConflict},
		{name: "validation", err: ErrGenderMismatch, expected: http.StatusBadRequest},
		{name: "unauthenticated", err: ErrUnauthorized, expected: http.StatusUnauthorized},
		{name: "wrapped typed error", err: fmt.Errorf("participate: %w", ErrCancelLocked), expected: http.StatusConflict},
		{name: "plain error", err: errors.New("boom"), expected: http.StatusInternalServerError},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, Status(test.err))
		})
	}
}

func TestIsMatchesByCode(t *testing.T) {
	wrapped := ErrParticipationLimit.Wrap(errors.New("roster full"))

	assert.ErrorIs(t, wrapped, ErrParticipationLimit)
	assert.NotErrorIs(t, wrapped, ErrGenderMismatch)
	assert.ErrorIs(t, fmt.Errorf("join: %w", wrapped), ErrParticipationLimit)
	assert.Contains(t, wrapped.Error(), "roster full")

	custom := ErrInvalidRequest.WithMessage("title: %s", "too short")
	assert.ErrorIs(t, custom, ErrInvalidRequest)
	assert.Equal(t, "title: too short", custom.Message)
	assert.Equal(t, "invalid request", ErrInvalidRequest.Message)
}

func TestFrom(t *testing.T) {
	assert.Nil(t, From(nil))
	assert.Same(t, ErrSelfRating, From(ErrSelfRating))

	internal := From(errors.New("db down"))
	assert.Equal(t, KindInternal, internal.Kind)
	assert.Equal(t, "INTERNAL_ERROR", internal.Code)
	assert.EqualError(t, internal.Unwrap(), "db down")
}

func TestByCode(t *testing.T) {
	assert.Same(t, ErrAlreadyRated, ByCode("MATCH_ALREADY_RATED"))
	assert.Same(t, ErrInternal, ByCode("NO_SUCH_CODE"))
}
