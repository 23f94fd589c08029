package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"waitline/internal/queue"
	"waitline/internal/response"
)

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

var errorMappings = []errorMapping{
	{queue.ErrQueueNotFound, http.StatusNotFound, "QUEUE_NOT_FOUND", "Очередь не найдена"},
	{queue.ErrEntryNotFound, http.StatusNotFound, "ENTRY_NOT_FOUND", "Запись в очереди не найдена"},
	{queue.ErrNotInQueue, http.StatusNotFound, "NOT_IN_QUEUE", "Пользователь не состоит в очереди"},
	{queue.ErrAlreadyJoined, http.StatusConflict, "ALREADY_IN_QUEUE", "Пользователь уже состоит в этой очереди"},
	{queue.ErrInvalidTransition, http.StatusConflict, "INVALID_TRANSITION", "Недопустимая смена статуса"},
	{queue.ErrInvalidQueue, http.StatusBadRequest, "VALIDATION_ERROR", "Ошибка валидации данных"},
	{queue.ErrInvalidPosition, http.StatusBadRequest, "VALIDATION_ERROR", "Ошибка валидации данных"},
	{queue.ErrStoreUnavailable, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "Хранилище временно недоступно"},
}

// writeError переводит ошибку движка в HTTP ответ.
func writeError(c *gin.Context, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			c.JSON(m.status, response.ErrorResponse{
				Code:    m.code,
				Message: m.message,
				Details: err.Error(),
			})
			return
		}
	}
	c.JSON(http.StatusInternalServerError, response.ErrorResponse{
		Code:    "INTERNAL_ERROR",
		Message: "Внутренняя ошибка сервера",
	})
}

func writeValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, response.ErrorResponse{
		Code:    "VALIDATION_ERROR",
		Message: "Ошибка валидации данных",
		Details: validationDetails(err),
	})
}

// validationDetails returns "field: rule" pairs when err comes from the
// validator, and the raw error otherwise (malformed JSON and the like).
func validationDetails(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field(), rule))
	}
	return strings.Join(parts, "; ")
}
