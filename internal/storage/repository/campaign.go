package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/brzap/disparador/internal/models"
)

// CreateCampaign insere a campanha e todos os seus destinatários em uma
// única transação. A campanha nasce scheduled e os destinatários pending.
func (s *Storage) CreateCampaign(ctx context.Context, campaign *models.Campaign, recipients []*models.Recipient) error {
	const op = "storage.CreateCampaign"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `INSERT INTO campaigns (id, user_uid, name, status, connection_id, created_at,
				  scheduled_at, sent_count, delivered_count, error_count, total_recipients)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, 0, 0, 0, $8)`
	if _, err = tx.ExecContext(ctx, query,
		campaign.ID, campaign.UserUID, campaign.Name, campaign.Status, campaign.ConnectionID,
		campaign.CreatedAt, campaign.ScheduledAt, campaign.TotalRecipients); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	for _, r := range recipients {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO campaign_recipients (id, campaign_id, contact_ref, message, delivery_state)
			VALUES ($1, $2, $3, $4, 'pending')`,
			r.ID, r.CampaignID, r.ContactRef, r.Message); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetCampaign retorna uma campanha pelo ID.
func (s *Storage) GetCampaign(ctx context.Context, id string) (*models.Campaign, error) {
	const op = "storage.GetCampaign"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, name, status, connection_id, created_at, scheduled_at,
				  sent_count, delivered_count, error_count, total_recipients
			  FROM campaigns WHERE id = $1`
	row := s.DB.QueryRowContext(ctx, query, id)

	var result models.Campaign
	var scheduledAt sql.NullTime
	if err := row.Scan(&result.ID, &result.UserUID, &result.Name, &result.Status,
		&result.ConnectionID, &result.CreatedAt, &scheduledAt,
		&result.SentCount, &result.DeliveredCount, &result.ErrorCount,
		&result.TotalRecipients); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if scheduledAt.Valid {
		result.ScheduledAt = &scheduledAt.Time
	}
	return &result, nil
}

// ListCampaigns retorna as campanhas do usuário com paginação.
func (s *Storage) ListCampaigns(ctx context.Context, userUID string, limit, offset int) ([]*models.Campaign, error) {
	const op = "storage.ListCampaigns"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, name, status, connection_id, created_at, scheduled_at,
				  sent_count, delivered_count, error_count, total_recipients
			  FROM campaigns WHERE user_uid = $1
			  ORDER BY created_at DESC
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, userUID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Campaign
	for rows.Next() {
		var c models.Campaign
		var scheduledAt sql.NullTime
		if err := rows.Scan(&c.ID, &c.UserUID, &c.Name, &c.Status, &c.ConnectionID,
			&c.CreatedAt, &scheduledAt, &c.SentCount, &c.DeliveredCount,
			&c.ErrorCount, &c.TotalRecipients); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if scheduledAt.Valid {
			c.ScheduledAt = &scheduledAt.Time
		}
		result = append(result, &c)
	}
	return result, nil
}

// UpdateCampaignStatus muda o status da campanha apenas se o status
// atual estiver na lista from. O compare-and-set garante que status
// terminais nunca são sobrescritos mesmo sob concorrência.
func (s *Storage) UpdateCampaignStatus(ctx context.Context, id, to string, from ...string) (int, error) {
	const op = "storage.UpdateCampaignStatus"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE campaigns SET status = $2 WHERE id = $1 AND status = ANY($3)`
	result, err := s.DB.ExecContext(ctx, query, id, to, from)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// ListExpiredTerminalCampaigns seleciona as campanhas candidatas da
// varredura de retenção: status terminal e criadas antes do corte.
// A ordenação por created_at e id torna a seleção determinística entre
// execuções, o que deixa retentativas idempotentes.
func (s *Storage) ListExpiredTerminalCampaigns(ctx context.Context, cutoff time.Time, limit int) ([]*models.Campaign, error) {
	const op = "storage.ListExpiredTerminalCampaigns"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, name, status, connection_id, created_at, scheduled_at,
				  sent_count, delivered_count, error_count, total_recipients
			  FROM campaigns
			  WHERE status IN ('completed', 'cancelled', 'failed')
			    AND created_at < $1
			  ORDER BY created_at, id
			  LIMIT $2`
	rows, err := s.DB.QueryContext(ctx, query, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Campaign
	for rows.Next() {
		var c models.Campaign
		var scheduledAt sql.NullTime
		if err := rows.Scan(&c.ID, &c.UserUID, &c.Name, &c.Status, &c.ConnectionID,
			&c.CreatedAt, &scheduledAt, &c.SentCount, &c.DeliveredCount,
			&c.ErrorCount, &c.TotalRecipients); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if scheduledAt.Valid {
			c.ScheduledAt = &scheduledAt.Time
		}
		result = append(result, &c)
	}
	return result, nil
}

// DeleteCampaign remove a linha da campanha. Os destinatários precisam
// já ter sido removidos: o armazenamento não faz delete em cascata.
func (s *Storage) DeleteCampaign(ctx context.Context, id string) (int, error) {
	const op = "storage.DeleteCampaign"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `DELETE FROM campaigns WHERE id = $1`
	result, err := s.DB.ExecContext(ctx, query, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}
