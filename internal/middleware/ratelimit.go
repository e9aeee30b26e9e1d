package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aidar/teamflow/internal/domain"
	"github.com/aidar/teamflow/internal/metrics"
)

// Limiter считает запросы по ключу
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RateLimit ограничивает число запросов с одного IP к одному маршруту.
// Ошибка хранилища лимитов не блокирует запрос.
// Ключ строится по пути запроса: шаблон маршрута chi на этом этапе еще не известен,
// поэтому middleware подходит только для маршрутов без параметров.
func RateLimit(limiter Limiter, logger *slog.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, err := limiter.Allow(r.Context(), clientIP(r)+":"+r.URL.Path)
			if err != nil {
				logger.Warn("rate limiter unavailable", slog.String("error", err.Error()))
				next.ServeHTTP(w, r)
				return
			}

			if !allowed {
				m.RateLimited(r.URL.Path)
				respondError(w, r, domain.CodeRateLimited, "too many requests")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP возвращает IP клиента; RemoteAddr уже исправлен middleware.RealIP
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}
