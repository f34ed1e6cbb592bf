package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/brzap/disparador/internal/models"
)

// UpdateTransactionStatus espelha localmente o status lido do
// processador de pagamentos. Retorna a quantidade de linhas alteradas;
// zero significa que a transação ainda não existe localmente.
func (s *Storage) UpdateTransactionStatus(ctx context.Context, transactionID, status string, updatedAt time.Time) (int, error) {
	const op = "storage.UpdateTransactionStatus"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE payment_transactions SET status = $2, updated_at = $3
			  WHERE transaction_id = $1`
	result, err := s.DB.ExecContext(ctx, query, transactionID, status, updatedAt)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// GetTransaction retorna o espelho local de uma transação.
func (s *Storage) GetTransaction(ctx context.Context, transactionID string) (*models.Transaction, error) {
	const op = "storage.GetTransaction"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT transaction_id, user_uid, status, amount, currency, updated_at
			  FROM payment_transactions WHERE transaction_id = $1`
	var result models.Transaction
	if err := s.DB.QueryRowContext(ctx, query, transactionID).Scan(
		&result.TransactionID, &result.UserUID, &result.Status,
		&result.Amount, &result.Currency, &result.UpdatedAt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}
