package response

// SuccessResponse представляет успешный ответ API
type SuccessResponse struct {
	Message string `json:"message" example:"Операция успешно выполнена"`
}

// ErrorResponse представляет ответ с ошибкой API
type ErrorResponse struct {
	// Код ошибки для программной обработки
	// example: VALIDATION_ERROR
	Code string `json:"code"`

	// Человекочитаемое сообщение об ошибке
	// example: Ошибка валидации данных
	Message string `json:"message"`

	// Дополнительные детали об ошибке (опционально)
	// example: status: oneof
	Details string `json:"details,omitempty"`
}

// EntryResponse описывает запись пользователя в очереди
type EntryResponse struct {
	Message  string `json:"message,omitempty" example:"Вступление в очередь прошло успешно"`
	EntryID  string `json:"entry_id"`
	QueueID  string `json:"queue_id"`
	UserID   string `json:"user_id"`
	Status   string `json:"status" example:"waiting"`
	Position int    `json:"position" example:"3"`
}
