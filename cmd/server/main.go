package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"billing/internal/catalog"
	"billing/internal/config"
	"billing/internal/excel"
	httpapi "billing/internal/http"
	"billing/internal/repository"
	"billing/internal/service"
	"billing/internal/store"

	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config error: %v", err)
	}

	logger, err := config.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		logrus.Fatalf("logger error: %v", err)
	}

	ctx := context.Background()
	kv, closeStore, err := store.Open(ctx, cfg.StoreDriver, cfg.DatabaseURL, cfg.RedisURL)
	if err != nil {
		logger.Fatalf("store error: %v", err)
	}
	defer closeStore()

	repo := repository.New(kv, repository.Options{
		Retention:           cfg.Retention,
		RefreshExpiryOnEdit: cfg.RefreshExpiryOnEdit,
		Logger:              logger.WithField("component", "repository"),
	})

	products := catalog.Default()
	if cfg.CatalogFile != "" {
		if err := loadCatalogFile(products, cfg.CatalogFile); err != nil {
			logger.Fatalf("catalog error: %v", err)
		}
	}

	svc := service.New(repo, products, service.Options{
		Company:  cfg.Company,
		Location: cfg.Timezone,
		Logger:   logger.WithField("component", "service"),
	})

	removed, err := svc.PurgeExpired(ctx)
	if err != nil {
		logger.Fatalf("purge error: %v", err)
	}

	handler := httpapi.NewHandler(svc, logger)
	router := httpapi.NewRouter(handler)

	server := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"addr":    server.Addr,
			"store":   cfg.StoreDriver,
			"purged":  removed,
			"catalog": cfg.CatalogFile,
		}).Info("billing server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("graceful shutdown failed: %v", err)
		if closeErr := server.Close(); closeErr != nil {
			logger.Errorf("force close failed: %v", closeErr)
		}
	}
}

func loadCatalogFile(products *catalog.Catalog, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	entries, err := excel.ParseCatalogRows(path, file)
	if err != nil {
		return err
	}
	products.Merge(entries)
	return nil
}
