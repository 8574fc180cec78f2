package app

import (
	"database/sql"
	"net/http"
	"time"

	"go-leave/internal/advisor"
	"go-leave/internal/auth"
	"go-leave/internal/balance"
	"go-leave/internal/compliance"
	"go-leave/internal/config"
	"go-leave/internal/leave"
	"go-leave/internal/leavetype"
	"go-leave/internal/messaging/kafka"
	"go-leave/internal/middleware"
	"go-leave/internal/notification"
	"go-leave/internal/project"
	"go-leave/internal/rbac"
	"go-leave/internal/rbac/infra"
	"go-leave/internal/shared/audit"
	"go-leave/internal/shared/metrics"
	"go-leave/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const refreshTTL = 7 * 24 * time.Hour

// core holds the services shared by the api, worker and consumer binaries.
type core struct {
	users         user.Repository
	leaveTypes    leavetype.Repository
	projects      project.Repository
	notifications notification.Repository
	outbox        kafka.OutboxRepository

	balances   balance.Service
	leaves     leave.Service
	compliance compliance.Service
}

func buildCore(cfg *config.Config, db *sql.DB, gormDB *gorm.DB, m *metrics.Metrics, logger *zap.Logger) *core {
	c := &core{
		users:         user.NewRepository(gormDB),
		leaveTypes:    leavetype.NewRepository(gormDB),
		projects:      project.NewRepository(gormDB),
		notifications: notification.NewRepository(gormDB),
		outbox:        kafka.NewOutboxRepository(db),
	}

	c.balances = balance.NewService(db, balance.NewRepository(gormDB), c.leaveTypes, c.users, logger)

	aiClient := advisor.NewClient(advisor.Config{
		BaseURL: cfg.AIAPIURL,
		APIKey:  cfg.AIAPIKey,
		Model:   cfg.AIModel,
		Timeout: cfg.AITimeout,
	}, logger)

	c.leaves = leave.NewService(db, leave.NewRepository(gormDB), leave.Deps{
		Balances:      c.balances,
		Users:         c.users,
		Projects:      c.projects,
		Notifications: c.notifications,
		Outbox:        c.outbox,
		Advisor:       aiClient,
		Audit:         audit.NewStdoutLogger(logger),
		Metrics:       m,
	}, logger)

	var source compliance.Source
	if cfg.ComplianceAPIURL != "" {
		source = compliance.NewClient(compliance.ClientConfig{
			BaseURL:  cfg.ComplianceAPIURL,
			Token:    cfg.ComplianceAPIToken,
			PageSize: cfg.CompliancePageSize,
		}, logger)
	} else {
		logger.Warn("COMPLIANCE_API_URL not set, compliance fetches are disabled")
	}
	c.compliance = compliance.NewService(db, compliance.NewRepository(gormDB), source, m, logger)

	return c
}

func registerModules(
	router *gin.Engine,
	cfg *config.Config,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
	logger *zap.Logger,
) error {
	m := metrics.New(prometheus.DefaultRegisterer)
	c := buildCore(cfg, db, gormDB, m, logger)

	// --- RBAC Core ---
	enforcer, err := infra.NewEnforcer()
	if err != nil {
		return err
	}
	rbacService, err := rbac.NewService(enforcer, logger)
	if err != nil {
		return err
	}

	// --- Services ---
	authService := auth.NewService(c.users, auth.TokenConfig{
		Secret:     cfg.JWTSecret,
		AccessTTL:  cfg.JWTTTL,
		RefreshTTL: refreshTTL,
	}, logger)
	userService := user.NewService(db, c.users, logger)
	leaveTypeService := leavetype.NewService(db, c.leaveTypes, rdb, logger)
	projectService := project.NewService(db, c.projects, c.users, logger)
	notificationService := notification.NewService(db, c.notifications, logger)

	// --- Handlers ---
	authHandler := auth.NewHandler(authService, auth.CookieConfig{
		Secure:     cfg.IsProduction(),
		AccessTTL:  cfg.JWTTTL,
		RefreshTTL: refreshTTL,
	}, logger)
	userHandler := user.NewHandler(userService, logger)
	leaveTypeHandler := leavetype.NewHandler(leaveTypeService, logger)
	balanceHandler := balance.NewHandler(c.balances, logger)
	leaveHandler := leave.NewHandler(c.leaves, logger)
	projectHandler := project.NewHandler(projectService, logger)
	notificationHandler := notification.NewHandler(notificationService)
	complianceHandler := compliance.NewHandler(c.compliance, logger)
	rbacHandler := rbac.NewHandler(rbacService, logger)

	// --- Global middleware ---
	router.Use(
		middleware.RequestID(),
		middleware.ContextLogger(logger),
		middleware.CORS(cfg.AllowedOrigins),
		middleware.HTTPMetrics(m),
	)

	router.GET("/healthz", func(ctx *gin.Context) {
		if err := db.PingContext(ctx.Request.Context()); err != nil {
			ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "down"})
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authMW := middleware.AuthMiddleware(cfg.JWTSecret)

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	{
		auth.RegisterRoutes(api, authHandler, authMW)
		user.RegisterRoutes(api, userHandler, rbacService, authMW, logger)
		leavetype.RegisterRoutes(api, leaveTypeHandler, rbacService, authMW)
		balance.RegisterRoutes(api, balanceHandler, rbacService, authMW)
		leave.RegisterRoutes(api, leaveHandler, rbacService, authMW, rdb)
		project.RegisterRoutes(api, projectHandler, rbacService, authMW)
		notification.RegisterRoutes(api, notificationHandler, rbacService, authMW)
		compliance.RegisterRoutes(api, complianceHandler, rbacService, authMW)
		rbac.RegisterRoutes(api, rbacHandler, authMW)
	}

	return nil
}
