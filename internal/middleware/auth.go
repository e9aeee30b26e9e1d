package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/aidar/teamflow/internal/domain"
	"github.com/aidar/teamflow/internal/service"
)

// ContextKey это кастомный тип для ключей контекста
type ContextKey string

const (
	// ClaimsKey ключ контекста для claims проверенного токена
	ClaimsKey ContextKey = "claims"
)

// errorBody повторяет формат ошибок обработчиков
type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func respondError(w http.ResponseWriter, r *http.Request, code domain.ErrorCode, message string) {
	var body errorBody
	body.Error.Code = string(code)
	body.Error.Message = message

	render.Status(r, code.HTTPStatus())
	render.JSON(w, r, body)
}

// bearerToken извлекает токен из заголовка Authorization.
// present=false если заголовок отсутствует.
func bearerToken(r *http.Request) (token string, present bool, err error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false, nil
	}

	// Проверяем формат Bearer
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", true, errors.New("invalid authorization header format")
	}

	return parts[1], true, nil
}

func respondAuthError(w http.ResponseWriter, r *http.Request, err error) {
	code := domain.MapErrorToCode(err)
	switch code {
	case domain.CodeForbidden:
		respondError(w, r, code, "insufficient role")
	case domain.CodeTokenExpired:
		respondError(w, r, code, "token expired")
	default:
		respondError(w, r, domain.CodeUnauthorized, "invalid or missing token")
	}
}

// RequireToken создает middleware, требующий валидный токен с ролью не ниже required.
// Нет токена или токен невалиден - 401, недостаточная роль - 403.
func RequireToken(tokens *service.TokenIssuer, required domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, present, err := bearerToken(r)
			if !present {
				respondError(w, r, domain.CodeUnauthorized, "missing authorization header")
				return
			}
			if err != nil {
				respondError(w, r, domain.CodeUnauthorized, err.Error())
				return
			}

			claims, err := tokens.Authorize(token, required)
			if err != nil {
				respondAuthError(w, r, err)
				return
			}

			// Добавляем claims в контекст
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// OptionalToken создает middleware для эндпоинтов, доступных без токена.
// Если токен передан, он должен быть валидным.
func OptionalToken(tokens *service.TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, present, err := bearerToken(r)
			if !present {
				next.ServeHTTP(w, r)
				return
			}
			if err != nil {
				respondError(w, r, domain.CodeUnauthorized, err.Error())
				return
			}

			claims, err := tokens.Verify(token)
			if err != nil {
				respondAuthError(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequireTeamScope запрещает доступ к команде из URL с токеном другой команды.
// Должен стоять после RequireToken.
func RequireTeamScope(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFromContext(r.Context())
			if claims == nil {
				respondError(w, r, domain.CodeUnauthorized, "invalid or missing token")
				return
			}

			if claims.TeamID != chi.URLParam(r, param) {
				respondError(w, r, domain.CodeForbidden, "token is not valid for this team")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// WithClaims кладет claims в контекст
func WithClaims(ctx context.Context, claims *service.Claims) context.Context {
	return context.WithValue(ctx, ClaimsKey, claims)
}

// ClaimsFromContext извлекает claims из контекста; nil если запрос без токена
func ClaimsFromContext(ctx context.Context) *service.Claims {
	claims, ok := ctx.Value(ClaimsKey).(*service.Claims)
	if !ok {
		return nil
	}
	return claims
}
