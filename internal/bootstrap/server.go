package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go-leave/internal/shared/audit"

	"go.uber.org/zap"
)

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Serve listens on cfg.Port until ctx is done, then drains in-flight requests
// and runs the shutdown hooks in order. A listen failure is returned without
// running the hooks.
func Serve(
	ctx context.Context,
	handler http.Handler,
	cfg ServerConfig,
	auditLogger audit.Logger,
	onShutdown ...func(),
) error {
	log := zap.L().Named("bootstrap.server")

	ln, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Port, err)
	}

	server := &http.Server{
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", ln.Addr().String()))
		serveErr <- server.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	cause := context.Cause(ctx)
	log.Info("shutdown requested", zap.NamedError("cause", cause))
	auditLogger.Log(context.Background(), audit.Entry{
		Action:  "SERVER_SHUTDOWN",
		Message: "api server draining",
		Meta:    map[string]any{"cause": fmt.Sprint(cause)},
	})

	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	drainCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err = server.Shutdown(drainCtx)
	if err != nil {
		log.Error("forced shutdown", zap.Error(err))
	}

	for _, fn := range onShutdown {
		fn()
	}
	return err
}
