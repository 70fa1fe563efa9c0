package store_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/heyprompt/heyprompt-server/internal/store"
)

func TestError_ErrorWithCause(t *testing.T) {
	cause := errors.New("disk I/O error")
	err := store.ErrNotFound.WithCause(cause)

	assert.Equal(t, "resource not found: disk I/O error", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Nil(t, store.ErrNotFound.Err, "sentinels are never mutated")
}

func TestError_IsComparesStatus(t *testing.T) {
	wrapped := fmt.Errorf("get prompt: %w", store.NotFound("prompt"))

	assert.ErrorIs(t, wrapped, store.ErrNotFound)
	assert.NotErrorIs(t, wrapped, store.ErrAlreadyExists)
	assert.ErrorIs(t, store.Taken("username"), store.ErrAlreadyExists)
	assert.ErrorIs(t, store.Invalid("bad %s", "tag"), store.ErrInvalidInput)
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name    string
		err     *store.Error
		code    int
		entity  string
		message string
	}{
		{"not found", store.NotFound("comment"), http.StatusNotFound, "comment", "comment not found"},
		{"taken", store.Taken("email"), http.StatusConflict, "email", "email already taken"},
		{"invalid", store.Invalid("rating must be between %d and %d", 1, 5), http.StatusBadRequest, "", "rating must be between 1 and 5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.HTTPCode())
			assert.Equal(t, tt.message, tt.err.Error())
			assert.Equal(t, tt.entity, store.EntityOf(fmt.Errorf("wrap: %w", tt.err)))
		})
	}
	assert.Empty(t, store.EntityOf(errors.New("plain")))
}
