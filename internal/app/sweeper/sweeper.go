// Package sweeper monta o aplicativo das varreduras diárias, que roda
// desacompanhado: a cada intervalo executa a varredura de expiração de
// assinaturas e a de retenção de campanhas. O single-flight entre
// instâncias é garantido pelo orquestrador que agenda um único pod.
package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/brzap/disparador/internal/config"
	"github.com/brzap/disparador/internal/lib/sl"
	expirationservice "github.com/brzap/disparador/internal/services/expiration"
	retentionservice "github.com/brzap/disparador/internal/services/retention"
	"github.com/brzap/disparador/internal/storage/repository"
)

// App aplicativo das varreduras.
type App struct {
	expiration *expirationservice.Service
	retention  *retentionservice.Service
	logger     *slog.Logger
	db         *repository.Storage
	interval   time.Duration
	maxBatch   int
}

func waitForDB(db *repository.Storage) error {
	for range 10 {
		err := repository.CheckDatabaseReady(db)
		if err == nil {
			return nil
		}
		time.Sleep(3 * time.Second)
	}
	return fmt.Errorf("database not ready after retries")
}

// New cria o aplicativo das varreduras.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	if err := waitForDB(db); err != nil {
		return nil, err
	}

	return &App{
		expiration: expirationservice.New(db, logger),
		retention:  retentionservice.New(db, logger, cfg.Sweep.RetentionDays),
		logger:     logger,
		db:         db,
		interval:   cfg.Sweep.SweepInterval,
		maxBatch:   cfg.Sweep.RetentionBatch,
	}, nil
}

// Run executa uma passada imediata e depois uma a cada intervalo, até
// o cancelamento do contexto.
func (a *App) Run(ctx context.Context) error {
	a.runOnce(ctx)

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := a.db.DB.Close(); err != nil {
				a.logger.Error("failed to close database", sl.Err(err))
			}
			return nil
		case <-ticker.C:
			a.runOnce(ctx)
		}
	}
}

func (a *App) runOnce(ctx context.Context) {
	now := time.Now().UTC()

	a.logger.Info("starting expiration sweep")
	if result, err := a.expiration.Sweep(ctx, now); err != nil {
		a.logger.Error("expiration sweep aborted", sl.Err(err))
	} else {
		a.logger.Info("expiration sweep finished",
			slog.Int("scanned", result.Scanned),
			slog.Int("transitioned", result.Transitioned))
	}

	a.logger.Info("starting retention sweep")
	if result, err := a.retention.Sweep(ctx, now, a.maxBatch); err != nil {
		a.logger.Error("retention sweep aborted", sl.Err(err))
	} else {
		a.logger.Info("retention sweep finished",
			slog.Int("deleted", result.Deleted),
			slog.Int("errors", result.Errors),
			slog.Int("total", result.TotalCandidates))
	}
}
