package contextutil_test

import (
	"context"
	"testing"

	"go-leave/internal/domain"
	"go-leave/internal/shared/contextutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestExtractMetadata(t *testing.T) {
	uid := uuid.New()
	ctx := contextutil.WithRequestID(context.Background(), "rid-1")
	ctx = contextutil.WithActor(ctx, domain.Actor{UserID: uid, Role: domain.RoleHR})

	md := contextutil.ExtractMetadata(ctx)

	assert.Equal(t, "rid-1", md.RequestID)
	assert.Equal(t, uid.String(), md.UserID)
	assert.Equal(t, "HR", md.Role)
	assert.False(t, md.System)

	sys := contextutil.ExtractMetadata(contextutil.WithActor(context.Background(), domain.SystemActor()))
	assert.True(t, sys.System)
	assert.Empty(t, sys.UserID)
}

func TestGetLogger_Fallbacks(t *testing.T) {
	def := zap.NewExample()

	assert.Same(t, def, contextutil.GetLogger(context.Background(), def))
	assert.NotNil(t, contextutil.GetLogger(context.Background(), nil))

	scoped := zap.NewNop()
	ctx := contextutil.WithLogger(context.Background(), scoped)
	assert.Same(t, scoped, contextutil.GetLogger(ctx, def))
}

func TestActor(t *testing.T) {
	_, ok := contextutil.GetActor(context.Background())
	assert.False(t, ok)

	a := domain.Actor{UserID: uuid.New(), Role: domain.RoleManager}
	got, ok := contextutil.GetActor(contextutil.WithActor(context.Background(), a))
	assert.True(t, ok)
	assert.Equal(t, a, got)
}
