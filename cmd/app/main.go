// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"creator-discovery/internal/config"
	"creator-discovery/internal/domain/model"
	"creator-discovery/internal/domain/ports/adapter"
	aiAdapters "creator-discovery/internal/infra/adapters/ai"
	prov "creator-discovery/internal/infra/adapters/provider"
	pg "creator-discovery/internal/infra/db/postgres"
	"creator-discovery/internal/infra/logging"
	"creator-discovery/internal/infra/metrics"
	red "creator-discovery/internal/infra/redis"
	"creator-discovery/internal/infra/sched"
	"creator-discovery/internal/infra/web"
	"creator-discovery/internal/infra/worker"
	"creator-discovery/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (fake providers, console logs)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("[DEV MODE] enabled")
	}

	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)
	locker := red.NewLocker(redisClient)
	queue := red.NewDispatchQueue(redisClient)

	// ---- Repositories ----
	jobRepo := pg.NewJobRepo(pool)
	dedupRepo := pg.NewDedupKeyRepo(pool)
	creatorRepo := pg.NewCreatorRepo(pool)
	tm := pg.NewTxManager(pool)

	// ---- Providers ----
	providers, err := buildProviders(cfg, rateLimiter)
	if err != nil {
		log.Fatalf("providers: %v", err)
	}

	// ---- Keyword suggester (Gemini -> OpenAI -> degraded) ----
	var chain []adapter.KeywordSuggester
	if cfg.AI.GeminiKey != "" {
		g, err := aiAdapters.NewGeminiSuggester(ctx, cfg.AI.GeminiKey, cfg.AI.GeminiURL, cfg.AI.DefaultModel)
		if err != nil {
			log.Fatalf("gemini suggester: %v", err)
		}
		chain = append(chain, g)
	}
	if cfg.AI.OpenAIKey != "" {
		o, err := aiAdapters.NewOpenAISuggester(cfg.AI.OpenAIKey, cfg.AI.DefaultModel)
		if err != nil {
			log.Fatalf("openai suggester: %v", err)
		}
		chain = append(chain, o)
	}
	var suggester adapter.KeywordSuggester
	switch len(chain) {
	case 0:
		logger.Warn().Msg("no AI key configured; keyword expansion will degrade to seeds")
		suggester = aiAdapters.NewNoopSuggester()
	case 1:
		suggester = chain[0]
	default:
		suggester = aiAdapters.NewMultiSuggester(chain...)
	}

	// ---- Use cases ----
	expander := usecase.NewKeywordExpander(suggester, cfg.Discovery.ExpectedYield, logger)
	dedup := usecase.NewDedupEngine(dedupRepo)
	discoveryUC := usecase.NewDiscoveryUseCase(
		jobRepo, creatorRepo, tm, providers, queue, expander, dedup,
		usecase.DiscoveryTuning{
			ParallelismWindow:    cfg.Discovery.ParallelismWindow,
			ExpectedYield:        cfg.Discovery.ExpectedYield,
			MaxStaleInvocations:  cfg.Discovery.MaxStaleInvocations,
			SearchTimeout:        cfg.Discovery.SearchTimeout.Std(),
			InvokeDelay:          cfg.Discovery.InvokeDelay.Std(),
			StaleProcessingAfter: cfg.Discovery.StaleProcessingAfter.Std(),
		},
		logger,
	)
	reconcileUC := usecase.NewReconcileUseCase(jobRepo, dedupRepo, creatorRepo, logger)

	// ---- Workers ----
	workerPool := worker.NewPool(cfg.Worker.Workers, logger)
	workerPool.Start(ctx)
	defer workerPool.Stop()
	dw := worker.NewDispatchWorker(queue, locker, discoveryUC, cfg.Worker.PollInterval.Std(), cfg.Worker.LockTTL.Std(), logger)
	go dw.Start(ctx, workerPool)

	reaper := sched.NewReaper(cfg.Discovery.StaleProcessingAfter.Std()/2, discoveryUC, logger)
	go func() { _ = reaper.Run(ctx) }()

	// ---- Operator API ----
	auth := web.NewAuthManager(cfg.Web.JWTSecret, 30*time.Minute)
	srv := web.NewServer(discoveryUC, reconcileUC, auth, cfg.Web.AdminKey, logger)
	go func() {
		if err := srv.Start(cfg.Web.Port); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
	cancel()
}

func buildProviders(cfg *config.Config, limiter prov.Limiter) (map[model.Platform]adapter.SearchProvider, error) {
	providers := make(map[model.Platform]adapter.SearchProvider)

	if cfg.Runtime.Dev {
		// Fake providers keep dev runs off real upstream quotas.
		for _, p := range []model.Platform{model.PlatformTikTok, model.PlatformInstagram, model.PlatformYouTube} {
			providers[p] = prov.NewFakeProvider(p, 30)
		}
		return providers, nil
	}

	if c := cfg.Providers.TikTok; c.APIKey != "" {
		p, err := prov.NewTikTokProvider(c.BaseURL, c.APIKey)
		if err != nil {
			return nil, err
		}
		providers[model.PlatformTikTok] = prov.NewThrottled(p, c.MaxConcurrent, limiter, c.RequestsPerMin)
	}
	if c := cfg.Providers.Instagram; c.APIKey != "" {
		p, err := prov.NewInstagramProvider(c.BaseURL, c.APIKey)
		if err != nil {
			return nil, err
		}
		providers[model.PlatformInstagram] = prov.NewThrottled(p, c.MaxConcurrent, limiter, c.RequestsPerMin)
	}
	if c := cfg.Providers.YouTube; c.APIKey != "" {
		p, err := prov.NewYouTubeProvider(c.BaseURL, c.APIKey)
		if err != nil {
			return nil, err
		}
		providers[model.PlatformYouTube] = prov.NewThrottled(p, c.MaxConcurrent, limiter, c.RequestsPerMin)
	}
	return providers, nil
}
