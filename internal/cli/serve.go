package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Makepad-fr/tada/internal/repository"
	"github.com/Makepad-fr/tada/internal/server"
	"github.com/Makepad-fr/tada/internal/ui"
)

func (r *runner) doServe(ctx context.Context, args []string) int {
	fs := r.flags("serve")
	addr := fs.String("addr", r.cfg.Server.Addr, "listen address")
	if err := fs.Parse(args); err != nil {
		return parseCode(err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backends := NewBackends(ctx, r.cfg, r.logger)
	defer backends.Close()
	st := backends.storage(r.cfg.Server.Storage, r.cfg.Server.DataDir, "tada-server:")
	repo := repository.NewLocal(st, r.cfg.Local.Key, r.logger)

	srv := &http.Server{
		Addr: *addr,
		Handler: server.Router(repo, server.Options{
			JWTSecret: r.cfg.Server.JWTSecret,
			Logger:    r.logger,
		}),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		r.logger.Info("HTTP server listening", "addr", *addr, "auth", r.cfg.Server.JWTSecret != "")
		errCh <- srv.ListenAndServe()
	}()
	ui.OK(r.out, "serving todos on "+*addr)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			ui.Fail(r.errw, "serve: "+err.Error())
			return 1
		}
		return 0
	case <-ctx.Done():
	}

	r.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		r.logger.Error("server shutdown error", "error", err)
		return 1
	}
	ui.OK(r.out, "server stopped")
	return 0
}
