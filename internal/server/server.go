package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/hornsiq/sentinel/backend/internal/config"
	"github.com/hornsiq/sentinel/backend/internal/logging"
)

// shutdownTimeout bounds the drain of in-flight requests.
const shutdownTimeout = 10 * time.Second

// Start serves router on serverCfg.Addr until ctx is cancelled.
func Start(ctx context.Context, name string, serverCfg config.ServerConfig, router http.Handler) error {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logging.Default().Info(name+" listening", "addr", serverCfg.Addr)
	return Run(ctx, srv)
}

// Run 启动服务，ctx 取消后优雅关闭
func Run(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
