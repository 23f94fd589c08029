package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"waitline/internal/models"
)

type CreateQueueRequest struct {
	Title string `json:"title" binding:"required,max=200" example:"Приёмная"`
}

// CreateQueue создаёт очередь для бизнеса
// @Summary		Создание очереди
// @Tags			admin
// @Accept			json
// @Produce		json
// @Param			business_id	path		string				true	"ID бизнеса"
// @Param			body		body		CreateQueueRequest	true	"Название очереди"
// @Security		BearerAuth
// @Success		201	{object}	models.Queue
// @Failure		400	{object}	response.ErrorResponse	"Ошибка валидации (VALIDATION_ERROR)"
// @Router			/admin/businesses/{business_id}/queues [post]
func (h *Handler) CreateQueue(c *gin.Context) {
	var uri businessURI
	if err := c.ShouldBindUri(&uri); err != nil {
		writeValidationError(c, err)
		return
	}
	var req CreateQueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeValidationError(c, err)
		return
	}

	q, err := h.engine.CreateQueue(c.Request.Context(), uri.BusinessID, strings.TrimSpace(req.Title))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, q)
}

// ListQueues возвращает очереди бизнеса
// @Summary		Очереди бизнеса
// @Tags			admin
// @Produce		json
// @Param			business_id	path	string	true	"ID бизнеса"
// @Security		BearerAuth
// @Success		200	{array}		models.Queue
// @Router			/admin/business/{business_id}/queues [get]
func (h *Handler) ListQueues(c *gin.Context) {
	var uri businessURI
	if err := c.ShouldBindUri(&uri); err != nil {
		writeValidationError(c, err)
		return
	}

	queues, err := h.engine.ListQueues(c.Request.Context(), uri.BusinessID)
	if err != nil {
		writeError(c, err)
		return
	}
	if queues == nil {
		queues = []models.Queue{}
	}
	c.JSON(http.StatusOK, queues)
}

// GetAnalytics возвращает сводку по всем очередям бизнеса
// @Summary		Аналитика бизнеса
// @Description	Количество обслуженных, пропущенных и ожидающих по каждой очереди и в сумме
// @Tags			admin
// @Produce		json
// @Param			business_id	path	string	true	"ID бизнеса"
// @Security		BearerAuth
// @Success		200	{object}	queue.Summary
// @Failure		503	{object}	response.ErrorResponse	"Хранилище недоступно (STORE_UNAVAILABLE)"
// @Router			/admin/analytics/{business_id} [get]
func (h *Handler) GetAnalytics(c *gin.Context) {
	var uri businessURI
	if err := c.ShouldBindUri(&uri); err != nil {
		writeValidationError(c, err)
		return
	}

	summary, err := h.engine.Analytics(c.Request.Context(), uri.BusinessID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
