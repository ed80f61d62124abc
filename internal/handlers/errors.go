package handlers

import (
	"errors"
	"net/http"

	"taskhub/internal/logger"
	"taskhub/internal/service"

	"go.uber.org/zap"
)

// бизнес-ошибки конвертируются в HTTP на границе запроса,
// ни одна из них не фатальна для процесса
func handleBusinessError(w http.ResponseWriter, err error) bool {
	var businessErr *service.BusinessError
	if !errors.As(err, &businessErr) {
		return false
	}

	statusCode := mapBusinessErrorToHTTP(businessErr.Code)

	logger.Warn("HTTP: Бизнес-ошибка",
		zap.String("error_code", businessErr.Code),
		zap.Int("http_status", statusCode))

	responseWithJSON(w, statusCode,
		toPayload("error", businessErr.Code),
		toPayload("message", businessErr.Message),
		toPayload("details", businessErr.Details),
	)
	return true
}

// PERMISSION_DENIED отдаём как 403, а не 404: пользователь без прав
// получает явный отказ, а не тихое "не найдено"
func mapBusinessErrorToHTTP(code string) int {
	switch code {
	case "NOT_FOUND":
		return http.StatusNotFound
	case "VALIDATION_ERROR":
		return http.StatusBadRequest
	case "PERMISSION_DENIED":
		return http.StatusForbidden
	default:
		return http.StatusBadRequest
	}
}
