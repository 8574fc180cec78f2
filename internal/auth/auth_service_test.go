package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-leave/internal/auth"
	autherrors "go-leave/internal/auth/errors"
	"go-leave/internal/domain"
	"go-leave/internal/user"
	userMock "go-leave/internal/user/mock"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

func newTestService(t *testing.T) (auth.Service, *userMock.MockRepository) {
	ctrl := gomock.NewController(t)
	repo := userMock.NewMockRepository(ctrl)
	svc := auth.NewService(repo, auth.TokenConfig{
		Secret:     testSecret,
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
	})
	return svc, repo
}

func parseClaims(t *testing.T, raw string) jwt.MapClaims {
	t.Helper()
	token, err := jwt.Parse(raw, func(*jwt.Token) (any, error) { return []byte(testSecret), nil })
	require.NoError(t, err)
	return token.Claims.(jwt.MapClaims)
}

func TestService_Login(t *testing.T) {
	ctx := context.Background()
	password := "password123"
	pw, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)

	mockUser := &user.User{
		ID:       uuid.New(),
		Name:     "Mona",
		Email:    "mona@example.com",
		Password: string(pw),
		Role:     domain.RoleManager,
		IsActive: true,
	}

	t.Run("success", func(t *testing.T) {
		svc, repo := newTestService(t)
		repo.EXPECT().FindByEmail(gomock.Any(), mockUser.Email).Return(mockUser, nil)

		pair, resp, err := svc.Login(ctx, mockUser.Email, password)

		require.NoError(t, err)
		assert.Equal(t, "MANAGER", resp.Role)

		access := parseClaims(t, pair.AccessToken)
		assert.Equal(t, mockUser.ID.String(), access["user_id"])
		assert.Equal(t, "MANAGER", access["role"])
		assert.NotContains(t, access, "typ")

		refresh := parseClaims(t, pair.RefreshToken)
		assert.Equal(t, "refresh", refresh["typ"])
	})

	t.Run("negative wrong password", func(t *testing.T) {
		svc, repo := newTestService(t)
		repo.EXPECT().FindByEmail(gomock.Any(), mockUser.Email).Return(mockUser, nil)

		_, _, err := svc.Login(ctx, mockUser.Email, "nope")
		assert.ErrorIs(t, err, autherrors.ErrInvalidCredentials)
	})

	t.Run("negative unknown email", func(t *testing.T) {
		svc, repo := newTestService(t)
		repo.EXPECT().FindByEmail(gomock.Any(), "ghost@example.com").Return(nil, gorm.ErrRecordNotFound)

		_, _, err := svc.Login(ctx, "ghost@example.com", password)
		assert.ErrorIs(t, err, autherrors.ErrInvalidCredentials)
	})

	t.Run("negative inactive user", func(t *testing.T) {
		svc, repo := newTestService(t)
		inactive := *mockUser
		inactive.IsActive = false
		repo.EXPECT().FindByEmail(gomock.Any(), mockUser.Email).Return(&inactive, nil)

		_, _, err := svc.Login(ctx, mockUser.Email, password)
		assert.ErrorIs(t, err, autherrors.ErrUserInactive)
	})

	t.Run("negative db error is not masked", func(t *testing.T) {
		svc, repo := newTestService(t)
		dbErr := errors.New("connection reset")
		repo.EXPECT().FindByEmail(gomock.Any(), mockUser.Email).Return(nil, dbErr)

		_, _, err := svc.Login(ctx, mockUser.Email, password)
		assert.ErrorIs(t, err, dbErr)
	})
}

func TestService_RefreshToken(t *testing.T) {
	ctx := context.Background()
	pw, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	u := &user.User{ID: uuid.New(), Email: "e@example.com", Password: string(pw), Role: domain.RoleEmployee, IsActive: true}

	t.Run("success picks up new role", func(t *testing.T) {
		svc, repo := newTestService(t)
		repo.EXPECT().FindByEmail(gomock.Any(), u.Email).Return(u, nil)
		pair, _, err := svc.Login(ctx, u.Email, "password123")
		require.NoError(t, err)

		promoted := *u
		promoted.Role = domain.RoleHR
		repo.EXPECT().FindByID(gomock.Any(), u.ID).Return(&promoted, nil)

		newPair, resp, err := svc.RefreshToken(ctx, pair.RefreshToken)

		require.NoError(t, err)
		assert.Equal(t, "HR", resp.Role)
		assert.Equal(t, "HR", parseClaims(t, newPair.AccessToken)["role"])
	})

	t.Run("negative access token rejected", func(t *testing.T) {
		svc, repo := newTestService(t)
		repo.EXPECT().FindByEmail(gomock.Any(), u.Email).Return(u, nil)
		pair, _, err := svc.Login(ctx, u.Email, "password123")
		require.NoError(t, err)

		_, _, err = svc.RefreshToken(ctx, pair.AccessToken)
		assert.ErrorIs(t, err, autherrors.ErrInvalidRefreshToken)
	})

	t.Run("negative garbage", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, _, err := svc.RefreshToken(ctx, "not-a-jwt")
		assert.ErrorIs(t, err, autherrors.ErrInvalidRefreshToken)
	})
}

func TestService_GetMe(t *testing.T) {
	svc, repo := newTestService(t)
	id := uuid.New()
	repo.EXPECT().FindByID(gomock.Any(), id).Return(nil, gorm.ErrRecordNotFound)

	_, err := svc.GetMe(context.Background(), id)
	assert.ErrorIs(t, err, autherrors.ErrUserNotFound)
}
