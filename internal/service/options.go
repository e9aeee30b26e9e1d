package service

import (
	"log/slog"
	"time"

	"github.com/aidar/teamflow/internal/metrics"
)

// Option настраивает необязательные зависимости сервисов
type Option func(*options)

type options struct {
	now     func() time.Time
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func newOptions(opts []Option) options {
	o := options{
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithClock подменяет источник текущего времени (используется в тестах)
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger задает логгер сервиса
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics задает коллекторы Prometheus; nil отключает запись метрик
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}
