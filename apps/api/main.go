package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/zenGate-Global/pagebot/contracts"
	accountshandler "github.com/zenGate-Global/pagebot/domains/accounts/be/handler"
	accountsrepo "github.com/zenGate-Global/pagebot/domains/accounts/be/repo"
	accountsservice "github.com/zenGate-Global/pagebot/domains/accounts/be/service"
	aiconfighandler "github.com/zenGate-Global/pagebot/domains/aiconfig/be/handler"
	aiconfigrepo "github.com/zenGate-Global/pagebot/domains/aiconfig/be/repo"
	aiconfigservice "github.com/zenGate-Global/pagebot/domains/aiconfig/be/service"
	historyhandler "github.com/zenGate-Global/pagebot/domains/history/be/handler"
	historyrepo "github.com/zenGate-Global/pagebot/domains/history/be/repo"
	historyservice "github.com/zenGate-Global/pagebot/domains/history/be/service"
	pageshandler "github.com/zenGate-Global/pagebot/domains/pages/be/handler"
	pagesrepo "github.com/zenGate-Global/pagebot/domains/pages/be/repo"
	pagesservice "github.com/zenGate-Global/pagebot/domains/pages/be/service"
	responseshandler "github.com/zenGate-Global/pagebot/domains/responses/be/handler"
	responsesrepo "github.com/zenGate-Global/pagebot/domains/responses/be/repo"
	responsesservice "github.com/zenGate-Global/pagebot/domains/responses/be/service"
	scenarioshandler "github.com/zenGate-Global/pagebot/domains/scenarios/be/handler"
	scenariosrepo "github.com/zenGate-Global/pagebot/domains/scenarios/be/repo"
	scenariosservice "github.com/zenGate-Global/pagebot/domains/scenarios/be/service"
	webhookhandler "github.com/zenGate-Global/pagebot/domains/webhook/be/handler"
	webhookrepo "github.com/zenGate-Global/pagebot/domains/webhook/be/repo"
	webhookrouter "github.com/zenGate-Global/pagebot/domains/webhook/be/router"
	"github.com/zenGate-Global/pagebot/platform/go/ai"
	platformlogging "github.com/zenGate-Global/pagebot/platform/go/logging"
	"github.com/zenGate-Global/pagebot/platform/go/messenger"
	platformmiddleware "github.com/zenGate-Global/pagebot/platform/go/middleware"
	"github.com/zenGate-Global/pagebot/platform/go/persistence"
)

type config struct {
	Port            string        `env:"PORT" envDefault:"3000"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`

	DatabaseURL      string `env:"DATABASE_URL,required"`
	DatabaseMaxConns int32  `env:"DATABASE_MAX_CONNS" envDefault:"10"`
	MigrateOnStart   bool   `env:"MIGRATE_ON_START" envDefault:"true"`

	AuthProvider      string        `env:"AUTH_PROVIDER" envDefault:"session"` // session | firebase | dev
	SessionSecret     string        `env:"SESSION_SECRET,required"`
	SessionTTL        time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	FirebaseProjectID string        `env:"FIREBASE_PROJECT_ID"`
	FirebaseCredsFile string        `env:"FIREBASE_CREDENTIALS_FILE"`

	AITimeout      time.Duration `env:"AI_TIMEOUT" envDefault:"20s"`
	OpenAIBaseURL  string        `env:"OPENAI_BASE_URL"`
	MistralBaseURL string        `env:"MISTRAL_BASE_URL"`

	GraphBaseURL string        `env:"GRAPH_BASE_URL" envDefault:"https://graph.facebook.com"`
	GraphVersion string        `env:"GRAPH_VERSION" envDefault:"v18.0"`
	GraphTimeout time.Duration `env:"GRAPH_TIMEOUT" envDefault:"10s"`

	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"10"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"20"`
}

func main() {
	ctx := context.Background()

	// A missing .env is fine; the process environment wins either way.
	_ = godotenv.Load()

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := platformlogging.NewLogger(platformlogging.Config{
		Component: "api-server",
		Level:     cfg.LogLevel,
	})
	if err != nil {
		log.Fatalf("init zap logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if cfg.MigrateOnStart {
		if err := persistence.MigrateUp(cfg.DatabaseURL); err != nil {
			logger.Fatal("apply migrations", zap.Error(err))
		}
		logger.Info("migrations applied")
	}

	pool, err := persistence.NewPool(ctx, persistence.PoolConfig{
		ConnString: cfg.DatabaseURL,
		MaxConns:   cfg.DatabaseMaxConns,
	})
	if err != nil {
		logger.Fatal("init postgres pool", zap.Error(err))
	}
	defer persistence.ClosePool(pool)

	tenantStore, err := persistence.NewTenantStore(pool)
	if err != nil {
		logger.Fatal("init tenant store", zap.Error(err))
	}
	pageStore, err := persistence.NewPageStore(pool)
	if err != nil {
		logger.Fatal("init page store", zap.Error(err))
	}
	ruleStore, err := persistence.NewRuleStore(pool)
	if err != nil {
		logger.Fatal("init rule store", zap.Error(err))
	}
	aiConfigStore, err := persistence.NewAIConfigStore(pool)
	if err != nil {
		logger.Fatal("init ai config store", zap.Error(err))
	}
	scenarioStore, err := persistence.NewScenarioStore(pool)
	if err != nil {
		logger.Fatal("init scenario store", zap.Error(err))
	}
	historyStore, err := persistence.NewHistoryStore(pool)
	if err != nil {
		logger.Fatal("init history store", zap.Error(err))
	}

	sessions, err := newSessionIssuer(cfg)
	if err != nil {
		logger.Fatal("init session issuer", zap.Error(err))
	}

	generator := ai.NewRegistry(ai.Config{
		OpenAIBaseURL:  cfg.OpenAIBaseURL,
		MistralBaseURL: cfg.MistralBaseURL,
		Timeout:        cfg.AITimeout,
	})
	sender := messenger.NewGraphSender(messenger.GraphConfig{
		BaseURL: cfg.GraphBaseURL,
		Version: cfg.GraphVersion,
		Timeout: cfg.GraphTimeout,
	})

	accountsService := accountsservice.New(accountsrepo.NewPostgresRepository(tenantStore), sessions)
	pagesService := pagesservice.New(pagesrepo.NewPostgresRepository(pageStore))
	responsesService := responsesservice.New(responsesrepo.NewPostgresRepository(ruleStore))
	aiConfigService := aiconfigservice.New(aiconfigrepo.NewPostgresRepository(aiConfigStore), generator)
	scenariosService := scenariosservice.New(scenariosrepo.NewPostgresRepository(scenarioStore))
	historyService := historyservice.New(historyrepo.NewPostgresRepository(historyStore))

	webhookRepo := webhookrepo.NewPostgresRepository(webhookrepo.Stores{
		Pages:     pageStore,
		Rules:     ruleStore,
		AIConfigs: aiConfigStore,
		History:   historyStore,
		Tenants:   tenantStore,
	})
	messageRouter := webhookrouter.New(webhookRepo, generator, sender, logger)

	spec, err := contracts.Load()
	if err != nil {
		logger.Fatal("load api contract", zap.Error(err))
	}
	logSecuritySchemes(logger, spec)

	router := newRouter(logger, routerDeps{
		RequestTimeout: cfg.RequestTimeout,
		Ready: func(ctx context.Context) error {
			return persistence.Ready(ctx, pool)
		},
		Verify:   buildVerifier(ctx, cfg, sessions, logger),
		Resolver: accountsService,
		Limiter:  platformmiddleware.NewTenantRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		Spec:     spec,

		Accounts:  accountshandler.New(accountsService, logger),
		Pages:     pageshandler.New(pagesService, logger),
		Responses: responseshandler.New(responsesService, logger),
		AIConfig:  aiconfighandler.New(aiConfigService, logger),
		Scenarios: scenarioshandler.New(scenariosService, logger),
		History:   historyhandler.New(historyService, logger),
		Webhook:   webhookhandler.New(webhookRepo, messageRouter, logger),
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	go func() {
		logger.Info("starting api server", zap.String("port", cfg.Port), zap.String("auth_provider", cfg.AuthProvider))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server listen failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
