package repository

import (
	"context"
	"fmt"

	"github.com/brzap/disparador/internal/models"
)

// ListPendingRecipients retorna até limit destinatários pending da
// campanha, na ordem de inserção.
func (s *Storage) ListPendingRecipients(ctx context.Context, campaignID string, limit int) ([]*models.Recipient, error) {
	const op = "storage.ListPendingRecipients"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, campaign_id, contact_ref, message, delivery_state
			  FROM campaign_recipients
			  WHERE campaign_id = $1 AND delivery_state = 'pending'
			  ORDER BY id
			  LIMIT $2`
	rows, err := s.DB.QueryContext(ctx, query, campaignID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Recipient
	for rows.Next() {
		var r models.Recipient
		if err := rows.Scan(&r.ID, &r.CampaignID, &r.ContactRef, &r.Message, &r.State); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &r)
	}
	return result, nil
}

// CountPendingRecipients conta os destinatários ainda pending.
func (s *Storage) CountPendingRecipients(ctx context.Context, campaignID string) (int, error) {
	const op = "storage.CountPendingRecipients"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT COUNT(*) FROM campaign_recipients
			  WHERE campaign_id = $1 AND delivery_state = 'pending'`
	var count int
	if err := s.DB.QueryRowContext(ctx, query, campaignID).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// ResolveRecipient grava o desfecho do disparo de um destinatário e
// incrementa os contadores da campanha na mesma transação: nenhum
// leitor observa o contador sem a linha do destinatário correspondente,
// nem o contrário. A linha da campanha é travada com FOR UPDATE, o que
// serializa os incrementos de disparos concorrentes do mesmo lote.
//
// Retorna false quando o destinatário já saiu de pending (por exemplo,
// um cancelamento que chegou antes do desfecho em voo).
func (s *Storage) ResolveRecipient(ctx context.Context, recipientID, outcome string, errorReason *string) (bool, error) {
	const op = "storage.ResolveRecipient"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var campaignID string
	if err = tx.QueryRowContext(ctx, `
		SELECT campaign_id FROM campaign_recipients WHERE id = $1`,
		recipientID).Scan(&campaignID); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if _, err = tx.ExecContext(ctx, `
		SELECT 1 FROM campaigns WHERE id = $1 FOR UPDATE`, campaignID); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE campaign_recipients SET delivery_state = $2, error_reason = $3
		WHERE id = $1 AND delivery_state = 'pending'`,
		recipientID, outcome, errorReason)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		// já resolvido por outra escrita, contadores seguem coerentes
		return false, tx.Commit()
	}

	if _, err = tx.ExecContext(ctx, `
		UPDATE campaigns SET
			sent_count = sent_count + 1,
			delivered_count = delivered_count + CASE WHEN $2 = 'delivered' THEN 1 ELSE 0 END,
			error_count = error_count + CASE WHEN $2 = 'failed' THEN 1 ELSE 0 END
		WHERE id = $1`, campaignID, outcome); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

// CancelPendingRecipients marca como failed, com o motivo informado,
// todos os destinatários ainda pending da campanha, ajustando os
// contadores na mesma transação. Retorna a quantidade marcada.
func (s *Storage) CancelPendingRecipients(ctx context.Context, campaignID, reason string) (int, error) {
	const op = "storage.CancelPendingRecipients"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err = tx.ExecContext(ctx, `
		SELECT 1 FROM campaigns WHERE id = $1 FOR UPDATE`, campaignID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE campaign_recipients SET delivery_state = 'failed', error_reason = $2
		WHERE campaign_id = $1 AND delivery_state = 'pending'`,
		campaignID, reason)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if rowsAffected > 0 {
		if _, err = tx.ExecContext(ctx, `
			UPDATE campaigns SET
				sent_count = sent_count + $2,
				error_count = error_count + $2
			WHERE id = $1`, campaignID, rowsAffected); err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// DeleteRecipientsByCampaign remove todos os destinatários da campanha
// e retorna a quantidade removida.
func (s *Storage) DeleteRecipientsByCampaign(ctx context.Context, campaignID string) (int, error) {
	const op = "storage.DeleteRecipientsByCampaign"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `DELETE FROM campaign_recipients WHERE campaign_id = $1`
	result, err := s.DB.ExecContext(ctx, query, campaignID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}
