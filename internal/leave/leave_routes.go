package leave

import (
	"go-leave/internal/middleware"
	"go-leave/internal/rbac"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	h *Handler,
	rbacService rbac.Service,
	auth gin.HandlerFunc,
	rdb *redis.Client,
) {
	leaves := r.Group("/leaves")
	leaves.Use(auth)
	{
		leaves.POST("",
			middleware.RateLimitByUser(1, 5),
			middleware.RBACAuthorize(rbacService, rbac.ResourceLeave, rbac.ActionCreate),
			middleware.Idempotency(rdb, zap.L()),
			h.Submit,
		)
		leaves.GET("/mine", middleware.RBACAuthorize(rbacService, rbac.ResourceLeave, rbac.ActionRead), h.ListMine)
		leaves.GET("/pending", middleware.RBACAuthorize(rbacService, rbac.ResourceLeave, rbac.ActionReview), h.ListPending)
		leaves.GET("/:id", middleware.RBACAuthorize(rbacService, rbac.ResourceLeave, rbac.ActionRead), h.GetByID)
		leaves.POST("/:id/approve", middleware.RBACAuthorize(rbacService, rbac.ResourceLeave, rbac.ActionReview), h.Approve)
		leaves.POST("/:id/reject", middleware.RBACAuthorize(rbacService, rbac.ResourceLeave, rbac.ActionReview), h.Reject)
		leaves.POST("/:id/notify-leads", middleware.RBACAuthorize(rbacService, rbac.ResourceLeave, rbac.ActionRead), h.NotifyLeads)
		leaves.POST("/:id/advice",
			middleware.RateLimitByUser(0.2, 3),
			middleware.RBACAuthorize(rbacService, rbac.ResourceLeave, rbac.ActionReview),
			h.Advise,
		)
	}
}
