// Package retention implementa a varredura diária de retenção:
// campanhas em status terminal criadas há mais de N dias são removidas
// junto com seus destinatários. Campanhas fora do conjunto terminal
// nunca são candidatas, qualquer que seja a idade.
package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/brzap/disparador/internal/lib/sl"
	"github.com/brzap/disparador/internal/metrics"
	"github.com/brzap/disparador/internal/models"
)

// CampaignStore operações de campanha usadas pela varredura.
type CampaignStore interface {
	ListExpiredTerminalCampaigns(ctx context.Context, cutoff time.Time, limit int) ([]*models.Campaign, error)
	DeleteRecipientsByCampaign(ctx context.Context, campaignID string) (int, error)
	DeleteCampaign(ctx context.Context, campaignID string) (int, error)
}

// Service varredura de retenção de campanhas.
type Service struct {
	campaigns     CampaignStore
	log           *slog.Logger
	retentionDays int
}

// New cria a varredura de retenção com a janela em dias.
func New(campaigns CampaignStore, log *slog.Logger, retentionDays int) *Service {
	if retentionDays < 1 {
		retentionDays = 5
	}
	return &Service{campaigns: campaigns, log: log, retentionDays: retentionDays}
}

// Sweep executa uma passada com o instante informado, limitada a
// maxBatch candidatos. Para cada campanha os destinatários são
// removidos primeiro; só com esse sucesso a linha da campanha é
// removida. Falha na remoção dos destinatários pula a campanha inteira
// (ambos intactos, contada como erro), evitando destinatários órfãos.
//
// Erros por item nunca falham a chamada; apenas a impossibilidade de
// ler os candidatos retorna erro.
func (s *Service) Sweep(ctx context.Context, now time.Time, maxBatch int) (*models.RetentionSweepResult, error) {
	const op = "retention.Sweep"

	if maxBatch < 1 {
		maxBatch = 1000
	}
	cutoff := now.AddDate(0, 0, -s.retentionDays)

	candidates, err := s.campaigns.ListExpiredTerminalCampaigns(ctx, cutoff, maxBatch)
	if err != nil {
		return &models.RetentionSweepResult{}, fmt.Errorf("%s: %w", op, err)
	}
	if len(candidates) == 0 {
		s.log.Info("no campaigns past retention window")
		return &models.RetentionSweepResult{}, nil
	}
	s.log.Info("found campaigns past retention window", slog.Int("count", len(candidates)))

	result := &models.RetentionSweepResult{TotalCandidates: len(candidates)}
	for _, campaign := range candidates {
		if _, err := s.campaigns.DeleteRecipientsByCampaign(ctx, campaign.ID); err != nil {
			s.log.Error("failed to delete campaign recipients, skipping campaign",
				slog.String("campaign_id", campaign.ID), sl.Err(err))
			result.Errors++
			continue
		}

		if _, err := s.campaigns.DeleteCampaign(ctx, campaign.ID); err != nil {
			s.log.Error("failed to delete campaign row",
				slog.String("campaign_id", campaign.ID), sl.Err(err))
			result.Errors++
			continue
		}

		result.Deleted++
		metrics.RetentionDeletedCampaigns.Inc()
	}

	s.log.Info("retention sweep finished",
		slog.Int("deleted", result.Deleted),
		slog.Int("errors", result.Errors),
		slog.Int("total", result.TotalCandidates))
	return result, nil
}
