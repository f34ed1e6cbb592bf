package campaign

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/brzap/disparador/internal/gateway"
	"github.com/brzap/disparador/internal/lib/sl"
	"github.com/brzap/disparador/internal/metrics"
	"github.com/brzap/disparador/internal/models"
)

// Sender transporte real das mensagens, implementado pelo cliente do
// gateway externo.
type Sender interface {
	SendText(ctx context.Context, instanceID, number, text string) (*gateway.SendResult, error)
}

// DispatchResult resultado agregado de um lote de despacho.
type DispatchResult struct {
	Attempted int    `json:"attempted"`
	Sent      int    `json:"sent"`
	Delivered int    `json:"delivered"`
	Failed    int    `json:"failed"`
	Remaining int    `json:"remaining"`
	Status    string `json:"status"`
}

// DispatchBatch despacha até batchSize destinatários pending da
// campanha, com até workers envios simultâneos. Cada desfecho é
// persistido junto com os contadores da campanha em uma transação; a
// ordem dentro do lote não é garantida, o progresso entre lotes é
// monotônico. Quando a conexão dona está offline e não há substituta,
// a campanha vai para failed com os pending preservados.
func (s *Service) DispatchBatch(ctx context.Context, sender Sender, id string, batchSize, workers int) (*DispatchResult, error) {
	const op = "campaign.DispatchBatch"

	campaign, err := s.repo.GetCampaign(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if campaign.IsTerminal() {
		return nil, ErrTerminalStatus
	}
	if campaign.Status != models.CampaignActive {
		return nil, ErrInvalidTransition
	}

	conn, err := s.connections.GetConnection(ctx, campaign.ConnectionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if conn.Status != models.ConnectionOnline {
		online, err := s.connections.HasOnlineConnection(ctx, campaign.UserUID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if !online {
			// erro irrecuperável: interrompe a execução, pending preservados
			if err := s.Fail(ctx, id); err != nil {
				s.log.Error("failed to mark campaign as failed", slog.String("campaign_id", id), sl.Err(err))
			}
			return nil, ErrNoOnlineConnection
		}
		return nil, fmt.Errorf("%s: owning connection %s is %s", op, conn.ID, conn.Status)
	}

	if batchSize < 1 {
		batchSize = 1
	}
	if workers < 1 {
		workers = 1
	}

	recipients, err := s.repo.ListPendingRecipients(ctx, id, batchSize)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := &DispatchResult{}
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)

	for _, recipient := range recipients {
		wg.Add(1)
		sem <- struct{}{}
		go func(r *models.Recipient) {
			defer wg.Done()
			defer func() { <-sem }()

			outcome, reason := s.dispatchOne(ctx, sender, conn.ID, r)

			applied, err := s.repo.ResolveRecipient(ctx, r.ID, outcome, reason)
			if err != nil {
				s.log.Error("failed to persist dispatch outcome",
					slog.String("recipient_id", r.ID), sl.Err(err))
				return
			}
			if !applied {
				// resolvido por outra escrita (cancelamento), vale a última
				return
			}
			metrics.DispatchedRecipients.WithLabelValues(outcome).Inc()

			mu.Lock()
			result.Attempted++
			switch outcome {
			case models.DeliverySent:
				result.Sent++
			case models.DeliveryDelivered:
				result.Delivered++
			case models.DeliveryFailed:
				result.Failed++
			}
			mu.Unlock()
		}(recipient)
	}
	wg.Wait()

	remaining, err := s.repo.CountPendingRecipients(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	result.Remaining = remaining
	result.Status = models.CampaignActive

	if remaining == 0 {
		if err := s.Complete(ctx, id); err == nil {
			result.Status = models.CampaignCompleted
		} else {
			s.log.Warn("failed to complete campaign after last batch",
				slog.String("campaign_id", id), sl.Err(err))
		}
	}

	s.log.Info("dispatch batch finished",
		slog.String("campaign_id", id),
		slog.Int("attempted", result.Attempted),
		slog.Int("failed", result.Failed),
		slog.Int("remaining", remaining))
	return result, nil
}

// dispatchOne envia uma mensagem e mapeia a resposta do gateway para o
// estado de entrega do destinatário.
func (s *Service) dispatchOne(ctx context.Context, sender Sender, instanceID string, r *models.Recipient) (string, *string) {
	sendResult, err := sender.SendText(ctx, instanceID, r.ContactRef, r.Message)
	if err != nil {
		reason := err.Error()
		return models.DeliveryFailed, &reason
	}

	switch sendResult.Result {
	case gateway.ResultDelivered:
		return models.DeliveryDelivered, nil
	case gateway.ResultSent:
		return models.DeliverySent, nil
	default:
		reason := sendResult.Detail
		if reason == "" {
			reason = "gateway reported failure"
		}
		return models.DeliveryFailed, &reason
	}
}
