package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"poemEval/app/echo-server/router"
	"poemEval/business/allocation"
	"poemEval/business/ledger"
	"poemEval/business/session"
	"poemEval/business/stats"
	"poemEval/internal/middleware"
	catalogRepo "poemEval/internal/repository/catalog"
	psqlRepo "poemEval/internal/repository/postgres"
	"poemEval/internal/rest"
	"poemEval/pkg/config"
	"poemEval/pkg/database"
	"poemEval/pkg/logger"
	"poemEval/pkg/metrics"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment)
	logger.Info("Starting poem evaluation service", "version", cfg.App.Version)

	db, err := database.InitPostgres(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}

	logger.Info("Database connected successfully")

	// Load read-only catalogs once at process start
	cat, err := catalogRepo.Load(cfg.Study.ImageDir, cfg.Study.PoemsCSV)
	if err != nil {
		logger.Fatal("Failed to load catalog", "error", err)
	}

	questions, err := catalogRepo.LoadQuestions(cfg.Study.QuestionsJSON)
	if err != nil {
		logger.Fatal("Failed to load questions", "error", err)
	}

	// Init validate
	validate := validator.New()

	// Init repo
	userRepo := psqlRepo.NewUserRepository(db)
	evalRepo := psqlRepo.NewEvaluationRepository(db)

	// Init service
	engine := allocation.NewEngine(
		cat.Items(),
		time.Duration(cfg.Study.ReservationTTLMinutes)*time.Minute,
	)
	ledgerService := ledger.NewService(userRepo)
	sessionService := session.NewService(engine, ledgerService, cat, questions, evalRepo, validate)
	statsService := stats.NewService(engine, evalRepo)

	// Init handler
	sessionHandler := rest.NewSessionHandler(sessionService)
	statsHandler := rest.NewStatsHandler(statsService)

	metrics.Init()

	// Init echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// HTTP error handler
	e.HTTPErrorHandler = middleware.ErrorHandler

	// Global middleware
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: []string{"http://localhost:3000", "http://localhost:8080"},
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	// Setup routes
	api := e.Group("/api/v1")
	router.SetupSessionRoutes(api, sessionHandler)
	router.SetupStatsRoutes(api, statsHandler)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Background reclamation of expired reservations
	sweepDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Duration(cfg.Study.SweepIntervalSeconds) * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := engine.Sweep(); n > 0 {
					logger.Info("reclaimed expired reservations", "count", n)
				}
			case <-sweepDone:
				return
			}
		}
	}()

	// Goroutine server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server starting", "address", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	close(sweepDone)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown server
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Server stopped")
}
