package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMapErrorToCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"invalid input", ErrInvalidInput, CodeBadRequest},
		{"team not found", ErrTeamNotFound, CodeNotFound},
		{"wrapped team not found", fmt.Errorf("join: %w", ErrTeamNotFound), CodeNotFound},
		{"invite not found", ErrInviteNotFound, CodeInviteNotFound},
		{"invite used", ErrInviteAlreadyUsed, CodeInviteAlreadyUsed},
		{"invite expired", ErrInviteExpired, CodeInviteExpired},
		{"code conflict", ErrCodeConflict, CodeConflict},
		{"token expired", fmt.Errorf("%w: %w", ErrUnauthorized, ErrTokenExpired), CodeTokenExpired},
		{"bad signature", ErrTokenSignatureInvalid, CodeUnauthorized},
		{"forbidden", ErrForbidden, CodeForbidden},
		{"unknown", errors.New("boom"), CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MapErrorToCode(tt.err))
		})
	}
}

func TestManagerInviteValidate(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	fresh := &ManagerInvite{ExpiresAt: now.Add(time.Hour)}
	assert.NoError(t, fresh.Validate(now))

	expired := &ManagerInvite{ExpiresAt: now}
	assert.ErrorIs(t, expired.Validate(now), ErrInviteExpired)

	// использованное и истекшее приглашение сообщает об использовании
	usedAndExpired := &ManagerInvite{IsUsed: true, ExpiresAt: now.Add(-time.Hour)}
	assert.ErrorIs(t, usedAndExpired.Validate(now), ErrInviteAlreadyUsed)
}

func TestMemberActivityTotalsProductivityScore(t *testing.T) {
	assert.Zero(t, MemberActivityTotals{}.ProductivityScore())
	assert.InDelta(t, 75.0, MemberActivityTotals{ProductiveHours: 3, UnproductiveHours: 1}.ProductivityScore(), 0.001)
}

func TestErrorCodeHTTPStatus(t *testing.T) {
	statuses := map[ErrorCode]int{
		CodeBadRequest:        http.StatusBadRequest,
		CodeNotFound:          http.StatusNotFound,
		CodeInviteNotFound:    http.StatusNotFound,
		CodeConflict:          http.StatusConflict,
		CodeInviteAlreadyUsed: http.StatusConflict,
		CodeInviteExpired:     http.StatusGone,
		CodeUnauthorized:      http.StatusUnauthorized,
		CodeTokenExpired:      http.StatusUnauthorized,
		CodeForbidden:         http.StatusForbidden,
		CodeRateLimited:       http.StatusTooManyRequests,
		CodeInternal:          http.StatusInternalServerError,
	}

	for code, want := range statuses {
		assert.Equal(t, want, code.HTTPStatus(), code)
	}
}
