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

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cabin-network-backend/internal/api"
	"cabin-network-backend/internal/inventory"
	"cabin-network-backend/internal/metrics"
	"cabin-network-backend/internal/model"
	"cabin-network-backend/internal/mutation"
	"cabin-network-backend/internal/notification"
	"cabin-network-backend/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup(false)
	if err != nil {
		return err
	}
	defer log.Sync()
	gin.SetMode(gin.ReleaseMode)

	// Create a context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer closeCancel()
		b.close(closeCtx)
	}()
	if b.checkpointer != nil {
		if err := b.checkpointer.Start(); err != nil {
			return err
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	sess := session.New(b.tree, log)
	sess.Watch(func(_, next model.Snapshot) {
		m.ObserveStats(inventory.ComputeStats(next), sess.Revision())
	})

	var webpushOptions *webpush.Options
	if cfg.Push.Enabled() {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		pool := notification.NewWorkerPool(cfg.WorkerPool.Size, b.store, webpushOptions, log, m)
		pool.Start(ctx)
		sess.Watch(pool.Notify)
		log.Info("offline alerts enabled", zap.Int("workers", cfg.WorkerPool.Size))
	} else {
		log.Warn("VAPID keys not configured, offline alerts disabled")
	}

	if err := sess.Start(); err != nil {
		return err
	}
	defer sess.Stop()

	readyCtx, readyCancel := context.WithTimeout(ctx, 30*time.Second)
	if err := sess.WaitReady(readyCtx); err != nil {
		log.Warn("first snapshot not received yet, serving empty inventory", zap.Error(err))
	}
	readyCancel()

	handler := api.NewHandler(api.Deps{
		Store:     b.store,
		Webpush:   webpushOptions,
		Inventory: sess,
		Mutations: mutation.New(b.tree, log, m),
		Metrics:   m,
		Log:       log,
	})
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: api.NewRouter(handler, cfg.Server, reg),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server starting", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutdown signal received, stopping services")
	case err := <-errCh:
		return fmt.Errorf("HTTP server ListenAndServe: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server Shutdown: %w", err)
	}

	log.Info("server gracefully stopped")
	return nil
}
