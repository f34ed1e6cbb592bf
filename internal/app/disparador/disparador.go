// Package disparador monta o aplicativo HTTP principal: armazenamento,
// cache, barramento de eventos, serviços e rotas.
package disparador

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/brzap/disparador/internal/cache"
	"github.com/brzap/disparador/internal/config"
	"github.com/brzap/disparador/internal/gateway"
	"github.com/brzap/disparador/internal/lib/rabbitmq"
	"github.com/brzap/disparador/internal/lib/sl"
	"github.com/brzap/disparador/internal/migrations"
	"github.com/brzap/disparador/internal/paymentprovider"
	campaignservice "github.com/brzap/disparador/internal/services/campaign"
	expirationservice "github.com/brzap/disparador/internal/services/expiration"
	limitsservice "github.com/brzap/disparador/internal/services/limits"
	reconcileservice "github.com/brzap/disparador/internal/services/reconcile"
	retentionservice "github.com/brzap/disparador/internal/services/retention"
	"github.com/brzap/disparador/internal/storage/repository"
)

// App aplicativo HTTP do disparador.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// New cria o aplicativo com todas as dependências ligadas. O barramento
// de eventos é opcional: sem RabbitMQURL configurada os eventos de
// campanha não são publicados.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	var conn *amqp.Connection
	var ch *amqp.Channel
	var publisher campaignservice.Publisher
	if cfg.RabbitMQURL != "" {
		conn, err = rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
		if err != nil {
			return nil, err
		}
		ch, err = rabbitmq.SetupChannel(conn, rabbitmq.GetCampaignQueues())
		if err != nil {
			return nil, err
		}
		publisher = &rabbitmq.Publisher{Ch: ch}
	} else {
		logger.Warn("rabbitmq url not configured, campaign events disabled")
	}

	sender := gateway.NewClient(cfg.GatewayBaseURL, cfg.GatewayAPIKey, cfg.GatewayTimeout)
	provider := paymentprovider.NewClient(cfg.PaymentBaseURL, cfg.PaymentTimeout)

	limitsService := limitsservice.New(db, cacheRedis, logger,
		cfg.Limits.FailOpen, cfg.Limits.DefaultMaxConns, cfg.Limits.LimitCacheTTL)
	campaignService := campaignservice.New(db, db, db, publisher, logger)
	expirationService := expirationservice.New(db, logger)
	retentionService := retentionservice.New(db, logger, cfg.Sweep.RetentionDays)
	reconcileService := reconcileservice.New(provider, db, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg,
		limitsService, campaignService, expirationService, retentionService, reconcileService, sender)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		conn:   conn,
		ch:     ch,
	}, nil
}

// Run sobe o servidor HTTP e faz o desligamento gracioso no
// cancelamento do contexto.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.logger.Error("failed to close rabbitmq channel", sl.Err(err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close rabbitmq connection", sl.Err(err))
		}
	}
	if err := a.db.DB.Close(); err != nil {
		a.logger.Error("failed to close database", sl.Err(err))
	}
}
