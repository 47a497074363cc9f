package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestMapErrorToCode проверяет соответствие доменных ошибок кодам API
func TestMapErrorToCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"Validation", fmt.Errorf("%w: name is required", ErrValidation), CodeValidation},
		{"Forbidden", ErrForbidden, CodeForbidden},
		{"Conflict", ErrConflict, CodeConflict},
		{"UserExists", ErrUserExists, CodeUserExists},
		{"Unauthorized", ErrUnauthorized, CodeUnauthorized},
		{"InvalidToken", ErrInvalidToken, CodeUnauthorized},
		{"NotFound", ErrNotFound, CodeNotFound},
		{"UserNotFound", ErrUserNotFound, CodeNotFound},
		{"TeamNotFound", ErrTeamNotFound, CodeNotFound},
		{"Unknown Error Is Internal", errors.New("connection reset"), CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MapErrorToCode(tt.err))
		})
	}
}
