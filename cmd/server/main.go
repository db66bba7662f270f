package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"textile-backend/internal/auth"
	"textile-backend/internal/cache"
	"textile-backend/internal/config"
	"textile-backend/internal/database"
	"textile-backend/internal/db"
	"textile-backend/internal/events"
	"textile-backend/internal/handlers"
	"textile-backend/internal/health"
	apphttp "textile-backend/internal/http"
	"textile-backend/internal/middleware"
	"textile-backend/internal/proofs"
	"textile-backend/internal/repositories"
	"textile-backend/internal/services"

	"go.uber.org/zap"
)

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg := config.Load()
	ctx := context.Background()

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	defer pool.Close()

	migrator := database.NewMigrator(pool, log)
	if err := migrator.RunMigrations(ctx); err != nil {
		log.Fatal("migrations failed", zap.Error(err))
	}

	// Redis is optional: the cache package no-ops when it is absent.
	if err := cache.Init(); err != nil {
		log.Warn("redis unavailable, running without cache", zap.Error(err))
	}

	uploader, err := proofs.New(ctx, cfg)
	if err != nil {
		log.Fatal("object storage init failed", zap.Error(err))
	}
	if uploader == nil {
		log.Info("R2 not configured, delivery proofs disabled")
	}

	hub := events.NewHub(log)
	go hub.Run()

	// Storage layer
	lotRepo := repositories.NewLotRepository(pool)
	baleRepo := repositories.NewBaleRepository(pool)
	checklistRepo := repositories.NewChecklistRepository(pool)
	modRepo := repositories.NewModificationRepository(pool)
	shipmentRepo := repositories.NewShipmentRepository(pool)
	userRepo := repositories.NewUserRepository(pool)
	actionRepo := repositories.NewActionLogRepository(pool)

	// Services
	jwtManager := auth.NewJWTManager(cfg)
	userService := services.NewUserService(userRepo, jwtManager)
	lotService := services.NewLotService(lotRepo, hub)
	baleService := services.NewBaleService(baleRepo, lotRepo, hub)
	checklistService := services.NewChecklistService(checklistRepo, baleRepo, modRepo, hub)
	modService := services.NewModificationService(modRepo, hub)
	var shipmentUploader proofs.Uploader
	if uploader != nil {
		shipmentUploader = uploader
	}
	shipmentService := services.NewShipmentService(shipmentRepo, checklistRepo, shipmentUploader, hub, log)

	// HTTP surface
	authMw := middleware.NewAuthMiddleware(jwtManager, userRepo)
	checker := health.NewHealthChecker(pool)

	router := apphttp.NewRouter(apphttp.Deps{
		Auth:          authMw,
		AuthHandler:   handlers.NewAuthHandler(userService),
		Users:         handlers.NewUserHandler(userService, actionRepo),
		Lots:          handlers.NewLotHandler(lotService, actionRepo),
		Bales:         handlers.NewBaleHandler(baleService, actionRepo),
		Checklists:    handlers.NewChecklistHandler(checklistService, actionRepo),
		Modifications: handlers.NewModificationHandler(modService, actionRepo),
		Shipments:     handlers.NewShipmentHandler(shipmentService, actionRepo),
		Health:        handlers.NewHealthHandler(checker),
		Actions:       handlers.NewActionLogHandler(actionRepo),
		ServeWS:       hub.ServeWS,
	})

	handler := middleware.NewCORS(cfg)(
		middleware.PanicRecovery(log)(
			middleware.RequestLog(log)(
				middleware.MetricsMiddleware(router))))

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", zap.Error(err))
	}
}
