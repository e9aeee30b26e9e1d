package service

import (
	"context"
	"errors"
	"math"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	employeeCodeRe = regexp.MustCompile(`^[A-HJ-NP-Z2-9]{6}$`)
	inviteCodeRe   = regexp.MustCompile(`^[A-Za-z0-9]{12}$`)
)

func notTaken(context.Context, string) (bool, error) { return false, nil }

func TestGenerateMatchesCharsetAndLength(t *testing.T) {
	g := NewCodeGenerator()
	ctx := context.Background()

	for i := 0; i < 200; i++ {
		code, err := g.Generate(ctx, EmployeeCodeSpec, notTaken)
		require.NoError(t, err)
		assert.Regexp(t, employeeCodeRe, code)

		invite, err := g.Generate(ctx, ManagerInviteCodeSpec, notTaken)
		require.NoError(t, err)
		assert.Regexp(t, inviteCodeRe, invite)
	}
}

func TestGenerateSkipsTakenCodes(t *testing.T) {
	g := NewCodeGenerator()
	ctx := context.Background()
	taken := map[string]bool{}
	exists := func(_ context.Context, code string) (bool, error) { return taken[code], nil }

	first, err := g.Generate(ctx, EmployeeCodeSpec, exists)
	require.NoError(t, err)
	taken[first] = true

	second, err := g.Generate(ctx, EmployeeCodeSpec, exists)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestGenerateRetriesOnCollision(t *testing.T) {
	g := NewCodeGenerator()
	calls := 0
	exists := func(context.Context, string) (bool, error) {
		calls++
		return calls <= 3, nil
	}

	code, err := g.Generate(context.Background(), EmployeeCodeSpec, exists)
	require.NoError(t, err)
	assert.Regexp(t, employeeCodeRe, code)
	assert.Equal(t, 4, calls)
}

func TestGenerateFallsBackWhenAttemptsExhausted(t *testing.T) {
	g := NewCodeGenerator()
	calls := 0
	alwaysTaken := func(context.Context, string) (bool, error) {
		calls++
		return true, nil
	}

	code, err := g.Generate(context.Background(), EmployeeCodeSpec, alwaysTaken)
	require.NoError(t, err)
	assert.Equal(t, MaxCodeAttempts, calls)
	assert.Regexp(t, employeeCodeRe, code)

	invite, err := g.Generate(context.Background(), ManagerInviteCodeSpec, alwaysTaken)
	require.NoError(t, err)
	assert.Regexp(t, inviteCodeRe, invite)
}

func TestGenerateReturnsLookupError(t *testing.T) {
	g := NewCodeGenerator()
	boom := errors.New("db down")

	_, err := g.Generate(context.Background(), EmployeeCodeSpec, func(context.Context, string) (bool, error) {
		return false, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestEncodeSuffix(t *testing.T) {
	assert.Equal(t, "AAAB", encodeSuffix(1, EmployeeCodeSpec.Charset, 4))
	assert.Equal(t, "AABA", encodeSuffix(32, EmployeeCodeSpec.Charset, 4))
	assert.Equal(t, encodeSuffix(5, EmployeeCodeSpec.Charset, 4), encodeSuffix(-5, EmployeeCodeSpec.Charset, 4))

	// 2^63 is a multiple of 32, so the low four digits are all zero
	assert.Equal(t, "AAAA", encodeSuffix(math.MinInt64, EmployeeCodeSpec.Charset, 4))
}
