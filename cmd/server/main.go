package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cocina-ops/api"
	"cocina-ops/config"
	"cocina-ops/core/appbootstrap"
	"cocina-ops/core/store"
	"cocina-ops/core/utils"
)

func main() {
	configPath := flag.String("config", "config.yml", "path to the yaml config file")
	flag.Parse()

	logger := utils.NewLogger()
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Errorf("load config: %v", err)
		os.Exit(1)
	}

	db, err := store.NewDB(cfg, logger)
	if err != nil {
		logger.Errorf("open database: %v", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := store.ApplyMigrations(context.Background(), db, cfg.DBDriver, logger); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}

	runtime, err := appbootstrap.Compose(cfg, db, logger)
	if err != nil {
		logger.Errorf("compose runtime: %v", err)
		os.Exit(1)
	}

	if err := runtime.Digest.Start(); err != nil {
		logger.Errorf("start digest: %v", err)
		os.Exit(1)
	}
	defer runtime.Digest.Stop()

	httpServer := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      api.NewServer(runtime.ServerDeps).Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("listening on %s", cfg.ListenAddr)
		errCh <- httpServer.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		logger.Infof("received %s, shutting down", sig)
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("http server: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}
}
