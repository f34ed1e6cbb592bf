package repository

import (
	"context"
	"fmt"

	"github.com/brzap/disparador/internal/models"
)

// CountConnections conta as conexões do usuário. Todos os status
// contam para o limite do plano: uma instância desconectada continua
// ocupando a vaga.
func (s *Storage) CountConnections(ctx context.Context, userUID string) (int, error) {
	const op = "storage.CountConnections"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT COUNT(*) FROM connections WHERE user_uid = $1`
	var count int
	if err := s.DB.QueryRowContext(ctx, query, userUID).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// GetConnection retorna uma conexão pelo ID.
func (s *Storage) GetConnection(ctx context.Context, id string) (*models.Connection, error) {
	const op = "storage.GetConnection"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, name, status FROM connections WHERE id = $1`
	var result models.Connection
	if err := s.DB.QueryRowContext(ctx, query, id).Scan(
		&result.ID, &result.UserUID, &result.Name, &result.Status); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}

// HasOnlineConnection informa se o usuário possui ao menos uma conexão
// com status online.
func (s *Storage) HasOnlineConnection(ctx context.Context, userUID string) (bool, error) {
	const op = "storage.HasOnlineConnection"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT EXISTS(SELECT 1 FROM connections WHERE user_uid = $1 AND status = 'online')`
	var exists bool
	if err := s.DB.QueryRowContext(ctx, query, userUID).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}
