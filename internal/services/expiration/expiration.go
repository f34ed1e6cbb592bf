// Package expiration implementa a varredura diária de expiração de
// assinaturas: perfis active com data de término no passado transitam
// para canceled. A varredura é idempotente: a segunda execução
// consecutiva não encontra candidatos.
package expiration

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/brzap/disparador/internal/lib/sl"
	"github.com/brzap/disparador/internal/metrics"
	"github.com/brzap/disparador/internal/models"
)

// ProfileStore operações de perfil usadas pela varredura.
type ProfileStore interface {
	ListExpiredActiveProfiles(ctx context.Context, now time.Time) ([]*models.Profile, error)
	UpdateSubscriptionStatus(ctx context.Context, userUID, status string) (int, error)
}

// Service varredura de expiração de assinaturas.
type Service struct {
	profiles ProfileStore
	log      *slog.Logger
}

// New cria a varredura de expiração.
func New(profiles ProfileStore, log *slog.Logger) *Service {
	return &Service{profiles: profiles, log: log}
}

// Sweep executa uma passada com o instante informado. O relógio chega
// por parâmetro para manter a varredura determinística em teste.
//
// Erro na leitura dos candidatos aborta a varredura inteira com zero
// processados. Erro de escrita em um perfil é registrado e a iteração
// continua nos demais. A desconexão das instâncias do usuário expirado
// é uma extensão futura documentada: esta varredura não toca conexões.
func (s *Service) Sweep(ctx context.Context, now time.Time) (*models.ExpirationSweepResult, error) {
	const op = "expiration.Sweep"

	profiles, err := s.profiles.ListExpiredActiveProfiles(ctx, now)
	if err != nil {
		return &models.ExpirationSweepResult{}, fmt.Errorf("%s: %w", op, err)
	}
	if len(profiles) == 0 {
		s.log.Info("no expired subscriptions found")
		return &models.ExpirationSweepResult{}, nil
	}
	s.log.Info("found expired subscriptions", slog.Int("count", len(profiles)))

	result := &models.ExpirationSweepResult{Scanned: len(profiles)}
	for _, profile := range profiles {
		// revalida no instante da mutação, contra skew entre seleção e escrita
		if profile.SubscriptionEndsAt == nil || !profile.SubscriptionEndsAt.Before(now) {
			continue
		}

		if _, err := s.profiles.UpdateSubscriptionStatus(ctx, profile.UserUID, models.SubscriptionCanceled); err != nil {
			s.log.Error("failed to cancel expired subscription",
				slog.String("user_uid", profile.UserUID), sl.Err(err))
			continue
		}
		result.Transitioned++
		metrics.ExpiredSubscriptions.Inc()
		s.log.Info("subscription expired and canceled", slog.String("user_uid", profile.UserUID))
	}

	return result, nil
}
