package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	httpapi "workforce-tracker.com/workforce-tracker/internal/http"
	"workforce-tracker.com/workforce-tracker/internal/notifications"
	"workforce-tracker.com/workforce-tracker/internal/services"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  "Starts the task workflow HTTP API, the notification workers and the reminder sweeper",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := bootstrap()
		defer a.close()

		cfg := a.cfg
		logger := a.logger

		store := a.verificationStore()

		outbox := notifications.NewOutbox(a.dispatcher, a.users, cfg.NotifyWorkers, cfg.NotifyQueueSize, logger)

		taskService := services.NewTaskService(a.tasks, a.users, store, outbox, cfg.Timezone, logger)
		verificationService := services.NewVerificationService(store, a.mailer(), logger)

		sweeper := a.reminderSweeper()
		sweeper.Start()

		e := httpapi.NewServer(logger)
		handler := httpapi.NewHandler(taskService, verificationService, a.users, a.hub, logger)
		httpapi.Register(e, handler, httpapi.RouteConfig{
			JWTSecret:                      cfg.JWTSecret,
			RateLimitPerMinute:             cfg.RateLimit,
			VerificationRateLimitPerMinute: cfg.VerificationRateLimit,
		})

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		go func() {
			logger.Infof("HTTP server listening on %s", cfg.AppURL)
			if err := e.Start(cfg.AppURL); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Errorf("server stopped: %v", err)
				stop()
			}
		}()

		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			time.Duration(cfg.ShutdownTimeoutSeconds)*time.Second,
		)
		defer cancel()

		_ = e.Shutdown(shutdownCtx)
		sweeper.Shutdown()
		outbox.Shutdown(shutdownCtx)

		logger.Info("HTTP server, notification workers and reminder sweeper shut down gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
