package compliance

import (
	"go-leave/internal/middleware"
	"go-leave/internal/rbac"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	h *Handler,
	rbacService rbac.Service,
	auth gin.HandlerFunc,
) {
	compliance := r.Group("/compliance")
	compliance.Use(auth)
	{
		compliance.GET("/users", middleware.RBACAuthorize(rbacService, rbac.ResourceCompliance, rbac.ActionRead), h.ListUsers)
		compliance.GET("/:date", middleware.RBACAuthorize(rbacService, rbac.ResourceCompliance, rbac.ActionRead), h.GetByDate)
		compliance.POST("/sync",
			middleware.RateLimitByUser(0.1, 1),
			middleware.RBACAuthorize(rbacService, rbac.ResourceCompliance, rbac.ActionManage),
			h.Sync,
		)
	}
}
