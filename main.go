package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"nairobify-be/config"
	"nairobify-be/controllers"
	"nairobify-be/logger"
	"nairobify-be/middlewares"
	"nairobify-be/projector"
	"nairobify-be/reporter"
	"nairobify-be/routes"
	"nairobify-be/services"
	"nairobify-be/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	zlog := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	defer func() { _ = zlog.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zlog); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, zlog *zap.Logger) error {
	source, closeSource, err := openSource(ctx, cfg, zlog)
	if err != nil {
		return err
	}
	defer closeSource()

	ledger, closeLedger, err := openLedger(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeLedger()

	issues := projector.New(source, zlog)
	if err := issues.Start(ctx); err != nil {
		return err
	}
	defer issues.Close()

	ic := controllers.NewIssueController(
		issues,
		services.NewSubmissionService(source, ledger, zlog),
		services.NewStatusService(source, issues, cfg.Status.StrictTransitions, zlog),
	)
	ic.PageSize = cfg.Dashboard.PageSize
	ic.MapLimit = cfg.Dashboard.MapRecentLimit
	ic.WriteTimeout = cfg.Store.WriteTimeout

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := routes.NewRouter(routes.RouterConfig{
		Logger:           zlog,
		CORSAllowOrigins: cfg.HTTP.CORSAllowOrigins,
		Cookie: middlewares.CookieOptions{
			Domain:     cfg.App.Domain,
			Production: cfg.App.IsProduction(),
		},
	}, ic)

	g, gctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    ":" + cfg.App.Port,
		Handler: router,
		// Request contexts end on shutdown so open dashboard streams return.
		BaseContext:  func(net.Listener) context.Context { return gctx },
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	g.Go(func() error {
		zlog.Info("listening", zap.String("addr", srv.Addr), zap.String("store", cfg.Store.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openSource(ctx context.Context, cfg *config.Config, zlog *zap.Logger) (store.Source, func(), error) {
	if cfg.Store.Driver == config.StoreDriverMemory {
		zlog.Warn("using in-memory issue store, data is lost on restart")
		return store.NewMemorySource(), func() {}, nil
	}

	client, db, err := config.ConnectDB(ctx, cfg.Mongo)
	if err != nil {
		return nil, nil, err
	}
	zlog.Info("Connected to MongoDB", zap.String("database", cfg.Mongo.Database))

	source := store.NewMongoSource(db.Collection(cfg.Mongo.Collection), cfg.Store.PollInterval, zlog)
	if err := source.EnsureIndexes(ctx); err != nil {
		zlog.Warn("could not create issue indexes", zap.Error(err))
	}
	return source, func() { _ = client.Disconnect(context.Background()) }, nil
}

func openLedger(ctx context.Context, cfg *config.Config) (reporter.Ledger, func(), error) {
	if cfg.Dedup.Driver == config.DedupDriverMemory {
		return reporter.NewMemoryLedger(), func() {}, nil
	}

	client, err := config.ConnectRedis(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	return reporter.NewRedisLedger(client, cfg.Dedup.KeyPrefix, cfg.Dedup.TTL), func() { _ = client.Close() }, nil
}
