package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/lachb/grazier/internal/config"
	"github.com/lachb/grazier/internal/refdata"
	"github.com/lachb/grazier/internal/repository/mongodb"
	"github.com/lachb/grazier/internal/repository/sheets"
	"github.com/lachb/grazier/internal/scheduler"
	"github.com/lachb/grazier/internal/server/handlers"
	"github.com/lachb/grazier/internal/server/router"
	lifecyclesvc "github.com/lachb/grazier/internal/service/lifecycle"
	marketsvc "github.com/lachb/grazier/internal/service/market"
	projectionsvc "github.com/lachb/grazier/internal/service/projection"
	valuationsvc "github.com/lachb/grazier/internal/service/valuation"
	"github.com/lachb/grazier/pkg/clients/pricefeed"
	"github.com/lachb/grazier/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	mongoRepo, err := mongodb.NewMongoDBRepository(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName)
	if err != nil {
		baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
	}
	defer func() {
		if err := mongoRepo.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()

	ref := refdata.NewProvider()
	feedClient := pricefeed.NewClient(cfg.PriceFeed)

	projector := projectionsvc.NewService(baseLogger.Named("svc.projection"))
	resolver := marketsvc.NewResolver(feedClient, ref, cfg.PriceFeed.CacheTTL, baseLogger.Named("svc.market"))
	engine := valuationsvc.NewEngine(projector, resolver, ref, cfg.Valuation.CostPerHeadDay, baseLogger.Named("svc.valuation"))
	manager := lifecyclesvc.NewManager(mongoRepo, projector, ref, baseLogger.Named("svc.lifecycle"))

	var exporter sheets.Exporter
	if cfg.Sheets.Enabled() {
		exporter, err = sheets.NewGoogleSheetExporter(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets exporter", zap.Error(err))
		}
		baseLogger.Info("valuation sheet export enabled")
	} else {
		baseLogger.Warn("sheets export not configured, nightly snapshots stay in mongodb only")
	}

	herdHandler := handlers.NewHerdHandler(mongoRepo, baseLogger.Named("handlers.herds"))
	valuationHandler := handlers.NewValuationHandler(engine, manager, mongoRepo, baseLogger.Named("handlers.valuation"))
	routerEngine := router.New(herdHandler, valuationHandler, baseLogger.Named("router"))

	sched := scheduler.NewScheduler(*cfg, manager, engine, resolver, mongoRepo, exporter, baseLogger.Named("scheduler"))
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      routerEngine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
