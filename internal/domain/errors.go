package domain

import (
	"errors"
	"net/http"
)

// Доменные ошибки сервиса команд
var (
	// ErrNotFound возвращается когда ресурс не найден
	ErrNotFound = errors.New("resource not found")

	// ErrTeamNotFound возвращается когда команда (или код сотрудника) не найдена
	ErrTeamNotFound = errors.New("team not found")

	// ErrInviteNotFound возвращается когда код приглашения менеджера неизвестен
	ErrInviteNotFound = errors.New("manager invite not found")

	// ErrMembershipNotFound возвращается когда пользователь не состоит в команде
	ErrMembershipNotFound = errors.New("membership not found")

	// ErrInviteAlreadyUsed возвращается при повторном использовании одноразового приглашения
	ErrInviteAlreadyUsed = errors.New("manager invite already used")

	// ErrInviteExpired возвращается когда срок действия приглашения истек
	ErrInviteExpired = errors.New("manager invite expired")

	// ErrCodeConflict возвращается когда сгенерированный код уже занят (нарушение уникальности)
	ErrCodeConflict = errors.New("code already exists")

	// ErrMembershipExists возвращается при попытке вставить второе участие для пары команда/пользователь
	ErrMembershipExists = errors.New("membership already exists")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized возвращается когда токен отсутствует или не прошел проверку
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden возвращается когда токен валиден, но прав недостаточно
	ErrForbidden = errors.New("forbidden")

	// ErrTokenMalformed возвращается для поврежденного или неподписанного токена
	ErrTokenMalformed = errors.New("token is malformed or unsigned")

	// ErrTokenExpired возвращается когда срок действия токена истек
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenSignatureInvalid возвращается когда подпись токена не совпадает
	ErrTokenSignatureInvalid = errors.New("token signature is invalid")
)

// ErrorCode представляет стабильные коды ошибок API
type ErrorCode string

// Коды ошибок API, по одному на каждый класс ошибок
const (
	CodeBadRequest        ErrorCode = "BAD_REQUEST"         // Некорректный запрос
	CodeNotFound          ErrorCode = "NOT_FOUND"           // Команда или код не найдены
	CodeInviteNotFound    ErrorCode = "INVITE_NOT_FOUND"    // Код приглашения не найден
	CodeConflict          ErrorCode = "CONFLICT"            // Нарушение уникальности
	CodeInviteExpired     ErrorCode = "INVITE_EXPIRED"      // Приглашение истекло
	CodeInviteAlreadyUsed ErrorCode = "INVITE_ALREADY_USED" // Приглашение уже использовано
	CodeUnauthorized      ErrorCode = "UNAUTHORIZED"        // Нет токена или токен невалиден
	CodeTokenExpired      ErrorCode = "TOKEN_EXPIRED"       // Токен просрочен
	CodeForbidden         ErrorCode = "FORBIDDEN"           // Недостаточно прав
	CodeRateLimited       ErrorCode = "RATE_LIMITED"        // Превышен лимит запросов
	CodeInternal          ErrorCode = "INTERNAL_ERROR"      // Внутренняя ошибка
)

// MapErrorToCode преобразует доменные ошибки в коды ошибок API
func MapErrorToCode(err error) ErrorCode {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return CodeBadRequest
	case errors.Is(err, ErrInviteNotFound):
		return CodeInviteNotFound
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrTeamNotFound),
		errors.Is(err, ErrMembershipNotFound):
		return CodeNotFound
	case errors.Is(err, ErrInviteAlreadyUsed):
		return CodeInviteAlreadyUsed
	case errors.Is(err, ErrInviteExpired):
		return CodeInviteExpired
	case errors.Is(err, ErrCodeConflict), errors.Is(err, ErrMembershipExists):
		return CodeConflict
	case errors.Is(err, ErrTokenExpired):
		return CodeTokenExpired
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrTokenMalformed),
		errors.Is(err, ErrTokenSignatureInvalid):
		return CodeUnauthorized
	case errors.Is(err, ErrForbidden):
		return CodeForbidden
	default:
		return CodeInternal
	}
}

// HTTPStatus возвращает HTTP статус для кода ошибки
func (c ErrorCode) HTTPStatus() int {
	switch c {
	case CodeBadRequest:
		return http.StatusBadRequest
	case CodeNotFound, CodeInviteNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeInviteAlreadyUsed:
		return http.StatusConflict
	case CodeInviteExpired:
		return http.StatusGone
	case CodeUnauthorized, CodeTokenExpired:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
