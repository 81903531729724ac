package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetAppError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{name: "sentinel", err: ErrNotFound, code: http.StatusNotFound},
		{name: "wrapped sentinel", err: fmt.Errorf("get quotation: %w", ErrForbidden), code: http.StatusForbidden},
		{name: "validation", err: NewValidationError([]FieldError{{Field: "items", Message: "required"}}), code: http.StatusUnprocessableEntity},
		{name: "plain error", err: errors.New("connection refused"), code: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, GetAppError(tt.err).Code)
		})
	}
}

func TestGetAppErrorHidesInternalMessage(t *testing.T) {
	appErr := GetAppError(errors.New("pq: password authentication failed"))
	assert.Equal(t, "Internal server error", appErr.Message)
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("letterhead missing")
	err := Wrap(ErrDocumentUnavailable, cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusServiceUnavailable, err.Code)
	assert.True(t, IsAppError(err))
}
