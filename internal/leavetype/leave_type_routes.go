package leavetype

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
	types := r.Group("/leave-types")
	types.Use(auth)
	{
		types.GET("", middleware.RBACAuthorize(rbacService, rbac.ResourceLeaveType, rbac.ActionRead), h.List)
		types.GET("/:id", middleware.RBACAuthorize(rbacService, rbac.ResourceLeaveType, rbac.ActionRead), h.GetByID)
		types.POST("", middleware.RBACAuthorize(rbacService, rbac.ResourceLeaveType, rbac.ActionManage), h.Define)
		types.PUT("/limits", middleware.RBACAuthorize(rbacService, rbac.ResourceLeaveType, rbac.ActionManage), h.SetLimits)
	}
}
