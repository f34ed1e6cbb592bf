package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/brzap/disparador/internal/models"
)

// GetProfile retorna o perfil de assinatura do usuário.
// Retorna sql.ErrNoRows embrulhado quando o perfil não existe.
func (s *Storage) GetProfile(ctx context.Context, userUID string) (*models.Profile, error) {
	const op = "storage.GetProfile"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT user_uid, subscription_status, subscription_ends_at, plan, max_connections
			  FROM profiles WHERE user_uid = $1`
	row := s.DB.QueryRowContext(ctx, query, userUID)

	var result models.Profile
	var endsAt sql.NullTime
	var maxConns sql.NullInt64
	if err := row.Scan(&result.UserUID, &result.SubscriptionStatus, &endsAt,
		&result.Plan, &maxConns); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if endsAt.Valid {
		result.SubscriptionEndsAt = &endsAt.Time
	}
	if maxConns.Valid {
		result.MaxConnections = int(maxConns.Int64)
	}
	return &result, nil
}

// ListExpiredActiveProfiles seleciona os perfis candidatos da varredura
// de expiração: status active com data de término no passado. O braço
// past_due do predicado é redundância defensiva, mantida por fidelidade
// ao comportamento em produção.
func (s *Storage) ListExpiredActiveProfiles(ctx context.Context, now time.Time) ([]*models.Profile, error) {
	const op = "storage.ListExpiredActiveProfiles"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT user_uid, subscription_status, subscription_ends_at, plan, max_connections
			  FROM profiles
			  WHERE subscription_status = 'active'
			    AND (subscription_ends_at < $1 OR subscription_status = 'past_due')`
	rows, err := s.DB.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Profile
	for rows.Next() {
		var p models.Profile
		var endsAt sql.NullTime
		var maxConns sql.NullInt64
		if err := rows.Scan(&p.UserUID, &p.SubscriptionStatus, &endsAt, &p.Plan, &maxConns); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if endsAt.Valid {
			p.SubscriptionEndsAt = &endsAt.Time
		}
		if maxConns.Valid {
			p.MaxConnections = int(maxConns.Int64)
		}
		result = append(result, &p)
	}
	return result, nil
}

// UpdateSubscriptionStatus grava o novo status de assinatura do perfil
// e retorna a quantidade de linhas alteradas.
func (s *Storage) UpdateSubscriptionStatus(ctx context.Context, userUID, status string) (int, error) {
	const op = "storage.UpdateSubscriptionStatus"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE profiles SET subscription_status = $2 WHERE user_uid = $1`
	result, err := s.DB.ExecContext(ctx, query, userUID, status)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}
