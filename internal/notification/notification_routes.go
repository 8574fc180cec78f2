package notification

import (
	"go-leave/internal/middleware"
	"go-leave/internal/rbac"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, h *Handler, rbacService rbac.Service, auth gin.HandlerFunc) {
	n := r.Group("/notifications")
	n.Use(auth, middleware.RBACAuthorize(rbacService, rbac.ResourceNotification, rbac.ActionRead))
	{
		n.GET("/dashboard", h.Dashboard)
		n.GET("/unread-count", middleware.RateLimitByUser(5, 10), h.UnreadCount)
	}
}
