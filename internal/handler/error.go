package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/aidar/teamflow/internal/domain"
)

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail содержит код и описание ошибки
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RespondWithError отправляет ответ с ошибкой
func RespondWithError(w http.ResponseWriter, r *http.Request, statusCode int, code, message string) {
	render.Status(r, statusCode)
	render.JSON(w, r, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// HandleError преобразует доменные ошибки в HTTP ответы
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	code := domain.MapErrorToCode(err)

	switch code {
	case domain.CodeInternal:
		RespondWithError(w, r, http.StatusInternalServerError, string(code), "internal server error")
	case domain.CodeBadRequest:
		// сообщение валидации уже содержит причину
		RespondWithError(w, r, code.HTTPStatus(), string(code), err.Error())
	default:
		RespondWithError(w, r, code.HTTPStatus(), string(code), messageFor(err))
	}
}

// messageFor возвращает текст самой доменной ошибки без обертки
func messageFor(err error) string {
	for _, target := range []error{
		domain.ErrInviteNotFound,
		domain.ErrInviteAlreadyUsed,
		domain.ErrInviteExpired,
		domain.ErrTeamNotFound,
		domain.ErrMembershipNotFound,
		domain.ErrTokenExpired,
		domain.ErrForbidden,
		domain.ErrUnauthorized,
		domain.ErrCodeConflict,
		domain.ErrNotFound,
	} {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return err.Error()
}
