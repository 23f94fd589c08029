package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"waitline/internal/models"
	"waitline/internal/queue"
	"waitline/internal/response"
	"waitline/internal/ws"
)

type ChangeStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=waiting served skipped" example:"served"`
}

func entryResponse(e *models.QueueEntry, message string) response.EntryResponse {
	return response.EntryResponse{
		Message:  message,
		EntryID:  e.ID,
		QueueID:  e.QueueID,
		UserID:   e.UserID,
		Status:   string(e.Status),
		Position: e.Position,
	}
}

func standingResponse(s queue.Standing) response.EntryResponse {
	return response.EntryResponse{
		EntryID:  s.EntryID,
		QueueID:  s.QueueID,
		UserID:   s.UserID,
		Status:   string(s.Status),
		Position: s.Position,
	}
}

// JoinQueue обрабатывает запрос на вступление в очередь
// @Summary		Вступление в очередь
// @Description	Ставит пользователя в конец очереди и уведомляет подписчиков очереди
// @Tags			queue
// @Produce		json
// @Param			queue_id	path		string	true	"ID очереди"
// @Param			user_id		path		string	true	"ID пользователя"
// @Security		BearerAuth
// @Success		200	{object}	response.EntryResponse	"Успешное вступление в очередь с указанием позиции"
// @Failure		400	{object}	response.ErrorResponse	"Ошибка валидации (VALIDATION_ERROR)"
// @Failure		404	{object}	response.ErrorResponse	"Очередь не найдена (QUEUE_NOT_FOUND)"
// @Failure		409	{object}	response.ErrorResponse	"Уже в очереди (ALREADY_IN_QUEUE)"
// @Failure		503	{object}	response.ErrorResponse	"Хранилище недоступно (STORE_UNAVAILABLE)"
// @Router			/user/queues/{queue_id}/join/{user_id} [post]
func (h *Handler) JoinQueue(c *gin.Context) {
	var uri entryURI
	if err := c.ShouldBindUri(&uri); err != nil {
		writeValidationError(c, err)
		return
	}

	entry, err := h.engine.Join(c.Request.Context(), uri.QueueID, uri.UserID)
	if err != nil {
		writeError(c, err)
		return
	}

	h.broadcast(c.Request.Context(), uri.QueueID, ws.EventUserJoined, gin.H{
		"user_id":  entry.UserID,
		"position": entry.Position,
	})

	c.JSON(http.StatusOK, entryResponse(entry, "Вступление в очередь прошло успешно"))
}

// GetPosition возвращает текущую позицию пользователя
// @Summary		Позиция в очереди
// @Description	Позиция и статус последней записи пользователя в очереди
// @Tags			queue
// @Produce		json
// @Param			queue_id	path		string	true	"ID очереди"
// @Param			user_id		path		string	true	"ID пользователя"
// @Security		BearerAuth
// @Success		200	{object}	response.EntryResponse
// @Failure		404	{object}	response.ErrorResponse	"Пользователь не в очереди (NOT_IN_QUEUE)"
// @Router			/user/queues/{queue_id}/position/{user_id} [get]
func (h *Handler) GetPosition(c *gin.Context) {
	var uri entryURI
	if err := c.ShouldBindUri(&uri); err != nil {
		writeValidationError(c, err)
		return
	}

	standing, err := h.engine.PositionOf(c.Request.Context(), uri.QueueID, uri.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, standingResponse(standing))
}

// ChangeStatus обрабатывает смену статуса записи администратором
// @Summary		Смена статуса
// @Description	Переводит запись из waiting в served или skipped и пересчитывает позиции
// @Tags			admin
// @Accept			json
// @Produce		json
// @Param			queue_id	path		string				true	"ID очереди"
// @Param			user_id		path		string				true	"ID пользователя"
// @Param			body		body		ChangeStatusRequest	true	"Новый статус"
// @Security		BearerAuth
// @Success		200	{object}	response.EntryResponse
// @Failure		400	{object}	response.ErrorResponse	"Ошибка валидации (VALIDATION_ERROR)"
// @Failure		404	{object}	response.ErrorResponse	"Запись не найдена (ENTRY_NOT_FOUND)"
// @Failure		409	{object}	response.ErrorResponse	"Недопустимый переход (INVALID_TRANSITION)"
// @Router			/admin/queues/{queue_id}/status/{user_id} [patch]
func (h *Handler) ChangeStatus(c *gin.Context) {
	var uri entryURI
	if err := c.ShouldBindUri(&uri); err != nil {
		writeValidationError(c, err)
		return
	}
	var req ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeValidationError(c, err)
		return
	}
	status, err := models.ParseStatus(req.Status)
	if err != nil {
		writeValidationError(c, err)
		return
	}

	h.changeStatus(c, uri, "Статус обновлён", func(ctx context.Context) (*models.QueueEntry, error) {
		return h.engine.ChangeStatus(ctx, uri.QueueID, uri.UserID, status)
	})
}

// LeaveQueue обрабатывает выход пользователя из очереди
// @Summary		Выход из очереди
// @Description	Помечает запись как skipped и пересчитывает позиции оставшихся
// @Tags			admin
// @Produce		json
// @Param			queue_id	path		string	true	"ID очереди"
// @Param			user_id		path		string	true	"ID пользователя"
// @Security		BearerAuth
// @Success		200	{object}	response.EntryResponse	"Успешный выход из очереди"
// @Failure		404	{object}	response.ErrorResponse	"Запись не найдена (ENTRY_NOT_FOUND)"
// @Failure		409	{object}	response.ErrorResponse	"Запись уже не в ожидании (INVALID_TRANSITION)"
// @Router			/admin/queues/{queue_id}/leave/{user_id} [post]
func (h *Handler) LeaveQueue(c *gin.Context) {
	var uri entryURI
	if err := c.ShouldBindUri(&uri); err != nil {
		writeValidationError(c, err)
		return
	}
	h.changeStatus(c, uri, "Вы успешно вышли из очереди", func(ctx context.Context) (*models.QueueEntry, error) {
		return h.engine.Leave(ctx, uri.QueueID, uri.UserID)
	})
}

func (h *Handler) changeStatus(c *gin.Context, uri entryURI, message string, apply func(ctx context.Context) (*models.QueueEntry, error)) {
	ctx := c.Request.Context()

	entry, err := apply(ctx)
	if err != nil {
		writeError(c, err)
		return
	}

	h.broadcast(ctx, uri.QueueID, ws.EventStatusChanged, gin.H{
		"user_id":       entry.UserID,
		"status":        entry.Status,
		"left_position": entry.Position,
	})

	c.JSON(http.StatusOK, entryResponse(entry, message))
}

// CheckStatus возвращает статус записи пользователя
// @Summary		Статус записи
// @Tags			admin
// @Produce		json
// @Param			queue_id	path		string	true	"ID очереди"
// @Param			user_id		path		string	true	"ID пользователя"
// @Security		BearerAuth
// @Success		200	{object}	response.EntryResponse
// @Failure		404	{object}	response.ErrorResponse	"Запись не найдена (ENTRY_NOT_FOUND)"
// @Router			/admin/queues/{queue_id}/status/{user_id} [get]
func (h *Handler) CheckStatus(c *gin.Context) {
	var uri entryURI
	if err := c.ShouldBindUri(&uri); err != nil {
		writeValidationError(c, err)
		return
	}

	standing, err := h.engine.CheckStatus(c.Request.Context(), uri.QueueID, uri.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, standingResponse(standing))
}

// GetWaitingLine возвращает ожидающих в порядке позиций
// @Summary		Состояние очереди
// @Tags			queue
// @Produce		json
// @Param			queue_id	path		string	true	"ID очереди"
// @Success		200	{array}		models.QueueEntry
// @Failure		404	{object}	response.ErrorResponse	"Очередь не найдена (QUEUE_NOT_FOUND)"
// @Router			/api/queues/{queue_id} [get]
func (h *Handler) GetWaitingLine(c *gin.Context) {
	var uri queueURI
	if err := c.ShouldBindUri(&uri); err != nil {
		writeValidationError(c, err)
		return
	}

	entries, err := h.engine.WaitingLine(c.Request.Context(), uri.QueueID)
	if err != nil {
		writeError(c, err)
		return
	}
	if entries == nil {
		entries = []models.QueueEntry{}
	}
	c.JSON(http.StatusOK, entries)
}
