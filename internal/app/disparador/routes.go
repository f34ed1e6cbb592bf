// Package disparador fornece as rotas do aplicativo principal.
package disparador

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/brzap/disparador/internal/config"
	campaigncreate "github.com/brzap/disparador/internal/http/handlers/campaign/create"
	campaigndispatch "github.com/brzap/disparador/internal/http/handlers/campaign/dispatch"
	campaignread "github.com/brzap/disparador/internal/http/handlers/campaign/read"
	campaignstart "github.com/brzap/disparador/internal/http/handlers/campaign/start"
	campaigntransition "github.com/brzap/disparador/internal/http/handlers/campaign/transition"
	"github.com/brzap/disparador/internal/http/handlers/health"
	limitsevaluate "github.com/brzap/disparador/internal/http/handlers/limits/evaluate"
	paymentreconcile "github.com/brzap/disparador/internal/http/handlers/payment/reconcile"
	sweepexpiration "github.com/brzap/disparador/internal/http/handlers/sweep/expiration"
	sweepretention "github.com/brzap/disparador/internal/http/handlers/sweep/retention"
	"github.com/brzap/disparador/internal/http/middlewarectx"
	campaignservice "github.com/brzap/disparador/internal/services/campaign"
	expirationservice "github.com/brzap/disparador/internal/services/expiration"
	limitsservice "github.com/brzap/disparador/internal/services/limits"
	reconcileservice "github.com/brzap/disparador/internal/services/reconcile"
	retentionservice "github.com/brzap/disparador/internal/services/retention"
)

// RegisterRoutes registra todas as rotas do aplicativo.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config,
	limitsService *limitsservice.Service,
	campaignService *campaignservice.Service,
	expirationService *expirationservice.Service,
	retentionService *retentionservice.Service,
	reconcileService *reconcileservice.Service,
	sender campaignservice.Sender,
) {
	// Middlewares globais. O CORS responde o preflight cross-origin
	// antes de qualquer handler, sem efeitos colaterais.
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
		cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			MaxAge:         300,
		}),
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Gatilhos do agendador externo e reconciliação (sem JWT; o
		// token do processador chega na própria requisição)
		r.Post("/sweeps/expiration", sweepexpiration.New(logger, expirationService).ServeHTTP)
		r.Post("/sweeps/retention", sweepretention.New(logger, retentionService, cfg.Sweep.RetentionBatch).ServeHTTP)
		r.Post("/payments/reconcile", paymentreconcile.New(logger, reconcileService).ServeHTTP)

		// Grupo autenticado pelo token do provedor de identidade
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(cfg.JWTSecretKey, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))

			r.Get("/limits", limitsevaluate.New(logger, limitsService).ServeHTTP)

			readHandler := campaignread.New(logger, campaignService)
			r.Post("/campaigns", campaigncreate.New(logger, campaignService).ServeHTTP)
			r.Get("/campaigns", readHandler.ListHandler)
			r.Get("/campaigns/{id}", readHandler.ServeHTTP)
			r.Post("/campaigns/{id}/start", campaignstart.New(logger, campaignService).ServeHTTP)
			r.Post("/campaigns/{id}/pause", campaigntransition.New(logger, campaignService, campaigntransition.ActionPause).ServeHTTP)
			r.Post("/campaigns/{id}/resume", campaigntransition.New(logger, campaignService, campaigntransition.ActionResume).ServeHTTP)
			r.Post("/campaigns/{id}/cancel", campaigntransition.New(logger, campaignService, campaigntransition.ActionCancel).ServeHTTP)
			r.Post("/campaigns/{id}/complete", campaigntransition.New(logger, campaignService, campaigntransition.ActionComplete).ServeHTTP)
			r.Post("/campaigns/{id}/dispatch", campaigndispatch.New(logger, campaignService, sender,
				cfg.Sweep.DispatchBatch, cfg.Sweep.DispatchWorkers).ServeHTTP)
		})
	})

	r.Get("/health", health.New())
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
