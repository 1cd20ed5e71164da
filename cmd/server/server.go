package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/watchtowerhq/watchtower-api/internal/platform/postgres"
)

// Run starts the background task runner, the optional report scheduler,
// and the HTTP server, then blocks until a shutdown signal arrives.
func (app *application) Run() error {
	if err := app.runner.Start(); err != nil {
		return fmt.Errorf("failed to start task runner: %w", err)
	}

	// Task recovery has requeued everything that survived the restart;
	// reports whose tasks are gone for good are swept to failed here.
	reconcileCtx, cancelReconcile := context.WithTimeout(context.Background(), 30*time.Second)
	reconciled, err := postgres.ReconcileStaleReports(reconcileCtx, app.db, app.reportStore, time.Hour, app.logger)
	cancelReconcile()
	if err != nil {
		app.logger.Error("failed to reconcile stale reports", "error", err)
	} else if reconciled > 0 {
		app.logger.Info("reconciled stale reports", "count", reconciled)
	}

	if app.scheduler != nil {
		if err := app.scheduler.Start(); err != nil {
			app.runner.Stop()
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", app.config.Server.Port),
		Handler: app.router,
	}

	serverErr := make(chan error, 1)
	go func() {
		app.logger.Info("starting server", "port", app.config.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-shutdownCh:
		app.logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-serverErr:
		app.stopBackground()
		return fmt.Errorf("server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		app.logger.Error("server shutdown failed", "error", err)
		app.stopBackground()
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	app.stopBackground()
	app.logger.Info("server shutdown completed")
	return nil
}

// stopBackground stops the scheduler and task runner, letting in-flight
// work finish. Interrupted tasks are requeued on the next startup.
func (app *application) stopBackground() {
	if app.scheduler != nil {
		<-app.scheduler.Stop().Done()
	}
	app.runner.Stop()
}
