package balance

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
	balances := r.Group("/balances")
	balances.Use(auth)
	{
		balances.GET("/me", middleware.RBACAuthorize(rbacService, rbac.ResourceBalance, rbac.ActionRead), h.Mine)
		balances.GET("/report",
			middleware.RateLimitByUser(1, 3),
			middleware.RBACAuthorize(rbacService, rbac.ResourceBalance, rbac.ActionReport),
			h.Report,
		)
		balances.GET("/report/export",
			middleware.RateLimitByUser(0.2, 2),
			middleware.RBACAuthorize(rbacService, rbac.ResourceBalance, rbac.ActionReport),
			h.Export,
		)
	}
}
