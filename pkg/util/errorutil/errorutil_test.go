package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainError(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.Nil(t, ToDomainError(nil))
	})

	t.Run("domain errors pass through wrapping", func(t *testing.T) {
		wrapped := fmt.Errorf("handler: %w", NewConflict("User already exists", nil))
		de := ToDomainError(wrapped)
		require.NotNil(t, de)
		assert.Equal(t, CodeConflict, de.Code)
		assert.Equal(t, http.StatusConflict, de.HTTPStatus)
	})

	t.Run("unknown errors become opaque internal errors", func(t *testing.T) {
		de := ToDomainError(errors.New("pq: relation does not exist"))
		require.NotNil(t, de)
		assert.Equal(t, CodeInternal, de.Code)
		assert.Equal(t, "internal server error", de.Message)
		assert.Equal(t, http.StatusInternalServerError, de.HTTPStatus)
	})
}

func TestNewTokenError(t *testing.T) {
	expired := NewTokenError(ErrTokenExpired)
	invalid := NewTokenError(ErrInvalidToken)

	assert.ErrorIs(t, expired, ErrTokenExpired)
	assert.ErrorIs(t, invalid, ErrInvalidToken)
	assert.NotErrorIs(t, expired, ErrInvalidToken)

	de1, de2 := ToDomainError(expired), ToDomainError(invalid)
	assert.Equal(t, de1.Message, de2.Message)
	assert.Equal(t, InvalidTokenMessage, de1.Message)
	assert.Equal(t, CodeValidation, de1.Code)
	assert.Equal(t, http.StatusBadRequest, de1.HTTPStatus)
}

func TestNewForbiddenReason(t *testing.T) {
	err := NewForbiddenReason("Account is deactivated", "inactive")
	de := ToDomainError(err)
	assert.Equal(t, CodeForbidden, de.Code)
	assert.Equal(t, "inactive", de.Details["reason"])
	assert.True(t, HasCode(err, CodeForbidden))
	assert.False(t, HasCode(err, CodeNotFound))
}
