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

	"github.com/nurpe/erp-console/internal/auth"
	"github.com/nurpe/erp-console/internal/config"
	"github.com/nurpe/erp-console/internal/db"
	"github.com/nurpe/erp-console/internal/events"
	"github.com/nurpe/erp-console/internal/excel"
	httphandler "github.com/nurpe/erp-console/internal/http"
	"github.com/nurpe/erp-console/internal/http/middleware"
	"github.com/nurpe/erp-console/internal/logger"
	"github.com/nurpe/erp-console/internal/pdf"
	"github.com/nurpe/erp-console/internal/priceimport"
	"github.com/nurpe/erp-console/internal/repository"
	"github.com/nurpe/erp-console/internal/scheduler"
	"github.com/nurpe/erp-console/internal/service"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	var publisher events.Publisher = events.Nop{}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger.Component(log, "events"))
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("publishing events to kafka")
	}

	departmentRepo := repository.NewDepartmentRepository(database)
	customerRepo := repository.NewCustomerRepository(database)
	contractRepo := repository.NewContractRepository(database)
	userRepo := repository.NewUserRepository(database)
	productRepo := repository.NewProductRepository(database)
	bulletinRepo := repository.NewBulletinRepository(database)
	purchaseRepo := repository.NewPurchaseRepository(database)
	importRepo := repository.NewImportRepository(database)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	pricingService := service.NewPricingService(bulletinRepo)
	authService := service.NewAuthService(userRepo, tokenParser, cfg.Auth.AccessTTL)
	bulletinService := service.NewBulletinService(
		bulletinRepo, productRepo, excel.NewGenerator(), publisher, logger.Component(log, "bulletins"),
	)

	pool := priceimport.NewPool(cfg.Import.Workers, 0, logger.Component(log, "import-pool"))
	importService := service.NewImportService(importRepo, productRepo, pool, service.ImportSettings{
		MaxFileBytes:   cfg.Import.MaxFileBytes,
		MatchThreshold: cfg.Import.MatchThreshold,
		JobTTL:         cfg.Import.JobTTL,
	}, publisher, logger.Component(log, "imports"))

	services := httphandler.Services{
		Auth:        authService,
		Bootstrap:   service.NewBootstrapService(userRepo, purchaseRepo, importRepo, contractRepo, cfg.Notify.ContractExpiryDays),
		Departments: service.NewDepartmentService(departmentRepo),
		Customers:   service.NewCustomerService(customerRepo),
		Contracts:   service.NewContractService(contractRepo, customerRepo),
		Users:       service.NewUserService(userRepo, departmentRepo),
		Products:    service.NewProductService(productRepo),
		Bulletins:   bulletinService,
		Pricing:     pricingService,
		Purchases: service.NewPurchaseService(
			purchaseRepo, customerRepo, contractRepo, productRepo, pricingService,
			pdf.NewGenerator(), publisher, logger.Component(log, "purchases"),
		),
		Imports: importService,
	}

	pool.Start(ctx, importService)
	if resumed, err := importService.Resume(ctx); err != nil {
		log.Error().Err(err).Msg("failed to resume import jobs")
	} else if resumed > 0 {
		log.Info().Int("jobs", resumed).Msg("resumed import jobs")
	}

	housekeeping := scheduler.New(cfg.Scheduler.HousekeepingCron, importService, bulletinService, log)
	if err := housekeeping.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start scheduler")
	}

	handler := httphandler.NewHandler(services, log)
	authMiddleware := middleware.Auth(tokenParser, authService)
	router := httphandler.NewRouter(handler, authMiddleware, httphandler.RouterOptions{
		Environment:    cfg.Environment,
		CORSOrigins:    cfg.HTTP.CORSOrigins,
		MaxUploadBytes: cfg.Import.MaxFileBytes,
	}, log)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("starting erp api")
		serverErr <- server.ListenAndServe()
	}()

	exitCode := 0
	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped")
			exitCode = 1
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	housekeeping.Stop()
	if err := pool.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("import pool")
	}
	if sqlDB, err := database.DB(); err == nil {
		_ = sqlDB.Close()
	}
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}
