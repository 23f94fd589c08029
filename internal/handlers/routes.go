package handlers

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"waitline/internal/auth"
	"waitline/internal/ws"
)

// RegisterRoutes wires every endpoint onto r.
func RegisterRoutes(r *gin.Engine, h *Handler, hub *ws.Hub, a *auth.Authenticator) {
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	admin := r.Group("/admin", a.AuthMiddleware(), a.RequireAdmin())
	{
		admin.POST("/businesses/:business_id/queues", h.CreateQueue)
		admin.GET("/business/:business_id/queues", h.ListQueues)
		admin.PATCH("/queues/:queue_id/status/:user_id", h.ChangeStatus)
		admin.GET("/queues/:queue_id/status/:user_id", h.CheckStatus)
		admin.POST("/queues/:queue_id/leave/:user_id", h.LeaveQueue)
		admin.GET("/analytics/:business_id", h.GetAnalytics)
		admin.GET("/users/:user_id/queues", h.GetUserQueues)
	}

	user := r.Group("/user", a.AuthMiddleware(), a.RequireSelf("user_id"))
	{
		user.POST("/queues/:queue_id/join/:user_id", h.JoinQueue)
		user.GET("/queues/:queue_id/position/:user_id", h.GetPosition)
	}

	api := r.Group("/api")
	{
		api.GET("/queues/:queue_id", h.GetWaitingLine)
		if hub != nil {
			api.GET("/queues/:queue_id/ws", hub.QueueHandler)
			api.GET("/users/:user_id/ws", a.AuthMiddleware(), a.RequireSelf("user_id"), hub.UserHandler)
		}
	}
}
