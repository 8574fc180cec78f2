package project

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
	read := middleware.RBACAuthorize(rbacService, rbac.ResourceProject, rbac.ActionRead)
	manage := middleware.RBACAuthorize(rbacService, rbac.ResourceProject, rbac.ActionManage)

	projects := r.Group("/projects")
	projects.Use(auth)
	{
		projects.GET("", read, h.List)
		projects.GET("/mine", read, h.Mine)
		projects.GET("/:id", read, h.GetByID)
		projects.POST("", manage, h.Create)
		projects.PATCH("/:id/status", manage, h.UpdateStatus)
		projects.POST("/:id/members", manage, h.AddMember)
		projects.DELETE("/:id/members/:userId", manage, h.RemoveMember)
	}
}
