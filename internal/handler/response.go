package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/render"

	"github.com/aidar/teamflow/internal/domain"
)

// maxBodyBytes ограничивает размер тела запроса
const maxBodyBytes = 1 << 20

// RespondWithJSON отправляет JSON ответ с указанным статус кодом
func RespondWithJSON(w http.ResponseWriter, r *http.Request, statusCode int, data any) {
	render.Status(r, statusCode)
	render.JSON(w, r, data)
}

// decodeBody разбирает JSON тело запроса в dst.
// При ошибке сам отвечает 400 и возвращает false.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, string(domain.CodeBadRequest), "invalid request body")
		return false
	}
	return true
}
