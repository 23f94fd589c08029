package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"waitline/internal/models"
)

// GetUserQueues godoc
// @Summary		Записи пользователя
// @Description	Все записи пользователя во всех очередях, от старых к новым
// @Tags			admin
// @Produce		json
// @Param			user_id	path	string	true	"ID пользователя"
// @Security		BearerAuth
// @Success		200	{array}		models.QueueEntry	"List of entries the user holds"
// @Failure		503	{object}	response.ErrorResponse	"Хранилище недоступно (STORE_UNAVAILABLE)"
// @Router			/admin/users/{user_id}/queues [get]
func (h *Handler) GetUserQueues(c *gin.Context) {
	var uri userURI
	if err := c.ShouldBindUri(&uri); err != nil {
		writeValidationError(c, err)
		return
	}

	entries, err := h.engine.UserEntries(c.Request.Context(), uri.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	if len(entries) == 0 {
		c.JSON(http.StatusOK, []models.QueueEntry{})
		return
	}
	c.JSON(http.StatusOK, entries)
}
