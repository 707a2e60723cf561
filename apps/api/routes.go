package main

import (
	"context"
	"net/http"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	accountshandler "github.com/zenGate-Global/pagebot/domains/accounts/be/handler"
	aiconfighandler "github.com/zenGate-Global/pagebot/domains/aiconfig/be/handler"
	historyhandler "github.com/zenGate-Global/pagebot/domains/history/be/handler"
	pageshandler "github.com/zenGate-Global/pagebot/domains/pages/be/handler"
	responseshandler "github.com/zenGate-Global/pagebot/domains/responses/be/handler"
	scenarioshandler "github.com/zenGate-Global/pagebot/domains/scenarios/be/handler"
	webhookhandler "github.com/zenGate-Global/pagebot/domains/webhook/be/handler"
	platformauth "github.com/zenGate-Global/pagebot/platform/go/auth"
	platformlogging "github.com/zenGate-Global/pagebot/platform/go/logging"
	"github.com/zenGate-Global/pagebot/platform/go/metrics"
	platformmiddleware "github.com/zenGate-Global/pagebot/platform/go/middleware"
	tenantmiddleware "github.com/zenGate-Global/pagebot/platform/go/tenant/middleware"
)

type routerDeps struct {
	RequestTimeout time.Duration
	Ready          func(ctx context.Context) error
	Verify         platformauth.VerifyFunc
	Resolver       tenantmiddleware.Resolver
	Limiter        *platformmiddleware.TenantRateLimiter
	Spec           *openapi3.T

	Accounts  *accountshandler.Handler
	Pages     *pageshandler.Handler
	Responses *responseshandler.Handler
	AIConfig  *aiconfighandler.Handler
	Scenarios *scenarioshandler.Handler
	History   *historyhandler.Handler
	Webhook   *webhookhandler.Handler
}

// newRouter assembles the HTTP surface. Probes, metrics and docs sit on the root; everything
// else lives under /api/v1 where the webhook and auth entry points are public and the rest
// requires a resolved tenant scope and passes contract validation.
func newRouter(logger *zap.Logger, deps routerDeps) http.Handler {
	rootRouter := chi.NewRouter()

	rootRouter.Use(
		chimw.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		chimw.Timeout(deps.RequestTimeout),
		platformmiddleware.DefaultCORS(),
	)
	rootRouter.Use(platformlogging.RequestLogger(logger))
	rootRouter.Use(metrics.Middleware)

	rootRouter.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	rootRouter.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Ready(r.Context()); err != nil {
			platformlogging.FromRequest(r, logger).Warn("readiness check failed", zap.Error(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	rootRouter.Handle("/metrics", metrics.Handler())

	apiRouter := chi.NewRouter()
	apiRouter.Use(platformauth.Bearer(deps.Verify))
	apiRouter.Use(platformmiddleware.RequestTrace)

	registerDocsRoutes(rootRouter, apiRouter, deps.Spec, logger)

	apiRouter.Get("/webhook", deps.Webhook.Verify)
	apiRouter.Post("/webhook", deps.Webhook.Receive)
	apiRouter.Post("/auth/register", deps.Accounts.Register)
	apiRouter.Post("/auth/login", deps.Accounts.Login)

	apiRouter.Group(func(r chi.Router) {
		r.Use(tenantmiddleware.RequireScope(deps.Resolver, tenantmiddleware.Config{CacheTTL: time.Minute}))
		r.Use(deps.Limiter.Middleware)
		r.Use(platformmiddleware.ContractValidator(deps.Spec))

		r.Post("/auth/logout", deps.Accounts.Logout)
		r.Get("/auth/user", deps.Accounts.CurrentUser)

		r.Get("/pages", deps.Pages.ListPages)
		r.Post("/pages/connect", deps.Pages.ConnectPage)
		r.Put("/pages/{pageId}/toggle", deps.Pages.TogglePage)
		r.Delete("/pages/{pageId}", deps.Pages.DeletePage)

		r.Get("/responses/{pageId}", deps.Responses.ListResponses)
		r.Post("/responses", deps.Responses.CreateResponse)
		r.Put("/responses/{id}", deps.Responses.UpdateResponse)
		r.Delete("/responses/{id}", deps.Responses.DeleteResponse)

		r.Get("/ai-config/{pageId}", deps.AIConfig.GetAIConfig)
		r.Post("/ai-config", deps.AIConfig.SaveAIConfig)

		r.Get("/scenarios/{pageId}", deps.Scenarios.ListScenarios)
		r.Post("/scenarios", deps.Scenarios.CreateScenario)
		r.Put("/scenarios/{id}", deps.Scenarios.UpdateScenario)
		r.Delete("/scenarios/{id}", deps.Scenarios.DeleteScenario)

		r.Get("/history/{pageId}", deps.History.ListHistory)
		r.Get("/stats/{pageId}", deps.History.GetStats)

		r.Post("/test/predefined", deps.Responses.TestPredefined)
		r.Post("/test/ai", deps.AIConfig.TestAI)
	})

	rootRouter.Mount("/api/v1", apiRouter)
	return rootRouter
}

func logSecuritySchemes(logger *zap.Logger, spec *openapi3.T) {
	if spec.Components.SecuritySchemes == nil {
		spec.Components.SecuritySchemes = openapi3.SecuritySchemes{}
	}

	if _, ok := spec.Components.SecuritySchemes["bearerAuth"]; !ok {
		spec.Components.SecuritySchemes["bearerAuth"] = &openapi3.SecuritySchemeRef{
			Value: &openapi3.SecurityScheme{
				Type:   "http",
				Scheme: "bearer",
			},
		}
		logger.Warn("injecting default bearerAuth security scheme")
	}

	names := make([]string, 0, len(spec.Components.SecuritySchemes))
	for name := range spec.Components.SecuritySchemes {
		names = append(names, name)
	}
	logger.Info("loaded security schemes", zap.Strings("names", names))
}
