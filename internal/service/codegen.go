package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"time"

	"github.com/aidar/teamflow/internal/metrics"
)

// MaxCodeAttempts bounds the number of random draws before falling back
const MaxCodeAttempts = 100

const fallbackSuffixLen = 4

// CodeSpec describes one kind of generated code
type CodeSpec struct {
	Kind    string
	Charset string
	Length  int
}

var (
	// EmployeeCodeSpec - короткий код для вступления в команду (без 0, O, 1, I)
	EmployeeCodeSpec = CodeSpec{
		Kind:    "employee",
		Charset: "ABCDEFGHJKLMNPQRSTUVWXYZ23456789",
		Length:  6,
	}

	// ManagerInviteCodeSpec - одноразовый код приглашения менеджера
	ManagerInviteCodeSpec = CodeSpec{
		Kind:    "manager_invite",
		Charset: "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789",
		Length:  12,
	}
)

// ExistsFunc reports whether a code is already taken
type ExistsFunc func(ctx context.Context, code string) (bool, error)

// CodeGenerator generates unique codes from a charset
type CodeGenerator struct {
	rng     io.Reader
	now     func() time.Time
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewCodeGenerator creates a CodeGenerator backed by crypto/rand
func NewCodeGenerator(opts ...Option) *CodeGenerator {
	o := newOptions(opts)
	return &CodeGenerator{
		rng:     rand.Reader,
		now:     o.now,
		logger:  o.logger,
		metrics: o.metrics,
	}
}

// Generate draws random codes until exists reports a free one. After
// MaxCodeAttempts collisions it returns a code with a timestamp-derived
// suffix instead of failing. Only a failed exists lookup is an error.
func (g *CodeGenerator) Generate(ctx context.Context, spec CodeSpec, exists ExistsFunc) (string, error) {
	for attempt := 0; attempt < MaxCodeAttempts; attempt++ {
		code, err := g.random(spec.Charset, spec.Length)
		if err != nil {
			return "", err
		}

		taken, err := exists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check %s code: %w", spec.Kind, err)
		}
		if !taken {
			g.metrics.CodeGenerated(spec.Kind)
			return code, nil
		}

		g.metrics.CodeCollision(spec.Kind)
	}

	code, err := g.fallback(spec)
	if err != nil {
		return "", err
	}

	g.logger.Warn("code attempts exhausted, using timestamp fallback",
		slog.String("kind", spec.Kind),
		slog.Int("attempts", MaxCodeAttempts),
	)
	g.metrics.CodeFallback(spec.Kind)
	g.metrics.CodeGenerated(spec.Kind)

	return code, nil
}

func (g *CodeGenerator) random(charset string, length int) (string, error) {
	limit := big.NewInt(int64(len(charset)))
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(g.rng, limit)
		if err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		buf[i] = charset[n.Int64()]
	}
	return string(buf), nil
}

// fallback keeps the code length: a random prefix followed by the current
// UnixNano written in the same charset
func (g *CodeGenerator) fallback(spec CodeSpec) (string, error) {
	prefixLen := max(spec.Length-fallbackSuffixLen, 0)
	prefix, err := g.random(spec.Charset, prefixLen)
	if err != nil {
		return "", err
	}

	return prefix + encodeSuffix(g.now().UnixNano(), spec.Charset, spec.Length-prefixLen), nil
}

// encodeSuffix writes |n| in the charset base, keeping the low-order digits
func encodeSuffix(n int64, charset string, length int) string {
	base := uint64(len(charset))
	u := uint64(n)
	if n < 0 {
		u = -u
	}
	buf := make([]byte, length)
	for i := length - 1; i >= 0; i-- {
		buf[i] = charset[u%base]
		u /= base
	}
	return string(buf)
}
