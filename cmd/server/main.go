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

	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/social-publisher/config"
	"github.com/d60-Lab/social-publisher/internal/api"
	"github.com/d60-Lab/social-publisher/internal/api/handler"
	"github.com/d60-Lab/social-publisher/internal/content"
	"github.com/d60-Lab/social-publisher/internal/graph"
	"github.com/d60-Lab/social-publisher/internal/lock"
	"github.com/d60-Lab/social-publisher/internal/metrics"
	"github.com/d60-Lab/social-publisher/internal/repository"
	"github.com/d60-Lab/social-publisher/internal/service"
	"github.com/d60-Lab/social-publisher/internal/watermark"
	"github.com/d60-Lab/social-publisher/pkg/database"
	"github.com/d60-Lab/social-publisher/pkg/logger"
	"github.com/d60-Lab/social-publisher/pkg/secret"
	"github.com/d60-Lab/social-publisher/pkg/tracing"
)

func main() {
	if err := run(); err != nil {
		logger.Error("server exited", zap.Error(err))
		_ = logger.Sync()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	for _, w := range cfg.Validate() {
		logger.Warn("configuration", zap.String("warning", w))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			Environment:      cfg.Sentry.Environment,
			AttachStacktrace: true,
		}); err != nil {
			return fmt.Errorf("init sentry: %w", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(reg)

	var sealer repository.TokenSealer = repository.PlainSealer
	if cfg.Security.TokenKey != "" {
		box, err := secret.NewBox(cfg.Security.TokenKey)
		if err != nil {
			return fmt.Errorf("token key: %w", err)
		}
		sealer = box
	}

	st, err := openStores(cfg, sealer)
	if err != nil {
		return err
	}
	defer func() { _ = st.close() }()

	var (
		locker        lock.Locker       = lock.NewKeyed()
		planStore     content.PlanStore = content.NewMemoryPlanStore()
		headlineCache content.HeadlineCache
	)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			return fmt.Errorf("connect redis %s: %w", cfg.Redis.Addr, err)
		}
		locker = lock.NewRedis(rdb, cfg.Redis.LockTTL)
		planStore = content.NewRedisPlanStore(rdb)
		headlineCache = content.NewRedisHeadlineCache(rdb, 30*time.Minute)
		logger.Info("using redis for publish locks and content cache", zap.String("addr", cfg.Redis.Addr))
	}

	client := graph.NewClient(graph.Config{
		Endpoint:      cfg.Graph.Endpoint(),
		PostURLBase:   cfg.Graph.PostURLBase,
		Timeout:       cfg.Graph.Timeout,
		RateLimit:     cfg.Graph.RateLimit,
		RateBurst:     cfg.Graph.RateBurst,
		VerifyRetries: cfg.Graph.VerifyRetries,
	}, m)

	gen := content.NewGenerator(0)
	publisher := service.NewPublisher(service.PublisherDeps{
		Posts:         st.posts,
		Ledger:        st.ledger,
		Pages:         st.pages,
		Graph:         client,
		Marker:        watermark.New(cfg.Watermark.Quality, cfg.Watermark.MaxPixels, m),
		Locker:        locker,
		Metrics:       m,
		DefaultPageID: cfg.Graph.DefaultPageID,
	})
	h := handler.New(handler.Deps{
		Posts:     service.NewPostService(st.posts, st.ledger, st.pages, gen),
		Pages:     service.NewPageService(st.pages, client),
		Publisher: publisher,
		Content: service.NewContentService(gen,
			content.NewNewsFetcher("", 10*time.Second, headlineCache),
			content.NewClassifier(10*time.Second)),
		Planner:       content.NewPlanner(planStore, 0),
		MaxImageBytes: cfg.Server.MaxUploadMB << 20,
	})

	router, err := api.NewRouter(cfg, h, m, reg)
	if err != nil {
		return err
	}

	stopJanitor := service.NewJanitor(st.posts, cfg.Storage.Retention, cfg.Storage.PruneInterval, m).Start()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("storage", cfg.Storage.Driver),
			zap.String("graph", cfg.Graph.Endpoint()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if err := stopJanitor(shutdownCtx); err != nil {
		logger.Warn("janitor shutdown", zap.Error(err))
	}
	return nil
}

type stores struct {
	posts  repository.PostRepository
	ledger repository.LedgerRepository
	pages  repository.PageRepository
	close  func() error
}

func openStores(cfg *config.Config, sealer repository.TokenSealer) (*stores, error) {
	switch cfg.Storage.Driver {
	case "", "json":
		posts, err := repository.OpenMemoryStore(repository.NewJSONFile[repository.PostDocument](cfg.Storage.PostsFile))
		if err != nil {
			return nil, fmt.Errorf("open posts file: %w", err)
		}
		pages := repository.NewMemoryPageStore()
		if cfg.Storage.PagesFile != "" {
			pages, err = repository.OpenMemoryPageStore(repository.NewJSONFile[repository.PageDocument](cfg.Storage.PagesFile), sealer)
			if err != nil {
				return nil, fmt.Errorf("open pages file: %w", err)
			}
		}
		logger.Info("using json store", zap.String("posts_file", cfg.Storage.PostsFile), zap.String("pages_file", cfg.Storage.PagesFile))
		return &stores{posts: posts, ledger: posts, pages: pages, close: func() error { return nil }}, nil
	default:
		db, err := database.InitDB(cfg)
		if err != nil {
			return nil, err
		}
		if err := repository.InitSchema(db); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		return &stores{
			posts:  repository.NewPostRepository(db),
			ledger: repository.NewLedgerRepository(db),
			pages:  repository.NewPageRepository(db, sealer),
			close:  sqlDB.Close,
		}, nil
	}
}
