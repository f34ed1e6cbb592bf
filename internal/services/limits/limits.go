// Package limits implementa o reforço do limite de conexões por plano.
// A avaliação é uma leitura pura: o chamador (camada de criação de
// conexões, fora deste serviço) é quem rejeita a criação quando
// CanCreateConnection é false.
package limits

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/brzap/disparador/internal/lib/sl"
	"github.com/brzap/disparador/internal/models"
)

// Repository métodos de leitura usados na avaliação direta.
type Repository interface {
	GetProfile(ctx context.Context, userUID string) (*models.Profile, error)
	CountConnections(ctx context.Context, userUID string) (int, error)
}

// Cache visão agregada pré-computada do limite.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// Service avalia o limite de conexões de um usuário.
type Service struct {
	repo  Repository
	cache Cache
	log   *slog.Logger

	// failOpen libera a criação quando a leitura falha; false propaga
	// o erro ao chamador. Escolha de política, configurável.
	failOpen        bool
	defaultMaxConns int
	cacheTTL        time.Duration
}

// New cria o serviço de limite de conexões.
func New(repo Repository, cache Cache, log *slog.Logger, failOpen bool, defaultMaxConns int, cacheTTL time.Duration) *Service {
	if defaultMaxConns < 1 {
		defaultMaxConns = 1
	}
	return &Service{
		repo:            repo,
		cache:           cache,
		log:             log,
		failOpen:        failOpen,
		defaultMaxConns: defaultMaxConns,
		cacheTTL:        cacheTTL,
	}
}

// Evaluate calcula o LimitStatus do usuário. Tenta primeiro a visão
// agregada no cache; na ausência dela cai para a contagem direta mais
// o max_connections do perfil (padrão 1 quando ausente) e reabastece o
// cache. Falha de leitura segue a política failOpen.
func (s *Service) Evaluate(ctx context.Context, userUID string) (*models.LimitStatus, error) {
	const op = "limits.Evaluate"

	cacheKey := fmt.Sprintf("limite:%s", userUID)
	if s.cache != nil {
		var cached models.LimitStatus
		found, err := s.cache.Get(cacheKey, &cached)
		if err != nil {
			s.log.Warn("failed to read limit view from cache", slog.String("key", cacheKey), sl.Err(err))
		} else if found {
			return &cached, nil
		}
	}

	status, err := s.evaluateDirect(ctx, userUID)
	if err != nil {
		if !s.failOpen {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		s.log.Warn("limit evaluation degraded to permissive fallback",
			slog.String("user_uid", userUID), sl.Err(err))
		return &models.LimitStatus{
			Plan:                 models.PlanPro,
			MaxConnections:       s.defaultMaxConns,
			CurrentConnections:   0,
			RemainingConnections: s.defaultMaxConns,
			CanCreateConnection:  true,
		}, nil
	}

	if s.cache != nil {
		if err := s.cache.Set(cacheKey, status, s.cacheTTL); err != nil {
			s.log.Warn("failed to cache limit view", slog.String("key", cacheKey), sl.Err(err))
		}
	}
	return status, nil
}

// Invalidate remove a visão agregada do usuário, para ser chamado após
// criação ou remoção de conexão.
func (s *Service) Invalidate(userUID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(fmt.Sprintf("limite:%s", userUID)); err != nil {
		s.log.Warn("failed to invalidate limit view", sl.Err(err))
	}
}

func (s *Service) evaluateDirect(ctx context.Context, userUID string) (*models.LimitStatus, error) {
	current, err := s.repo.CountConnections(ctx, userUID)
	if err != nil {
		return nil, err
	}

	plan := models.PlanPro
	maxConns := s.defaultMaxConns
	profile, err := s.repo.GetProfile(ctx, userUID)
	if err != nil {
		return nil, err
	}
	if profile != nil {
		plan = profile.Plan
		if profile.MaxConnections >= 1 {
			maxConns = profile.MaxConnections
		}
	}

	remaining := maxConns - current
	if remaining < 0 {
		remaining = 0
	}
	return &models.LimitStatus{
		Plan:                 plan,
		MaxConnections:       maxConns,
		CurrentConnections:   current,
		RemainingConnections: remaining,
		CanCreateConnection:  current < maxConns,
	}, nil
}
