package middleware

import (
	"go-leave/internal/shared/contextutil"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ContextLogger stores a request-scoped logger carrying the request id, the
// matched route and, once AuthMiddleware has run, the actor. Mounting it
// again after auth refreshes the actor fields.
func ContextLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		fields := []zap.Field{
			zap.String("request_id", contextutil.GetRequestID(ctx)),
			zap.String("route", c.FullPath()),
		}
		if actor, ok := contextutil.GetActor(ctx); ok {
			fields = append(fields,
				zap.String("user_id", actor.UserID.String()),
				zap.String("role", actor.Role.String()),
			)
		}

		ctx = contextutil.WithLogger(ctx, logger.With(fields...))
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
