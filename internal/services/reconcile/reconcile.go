// Package reconcile implementa a reconciliação do status de uma
// transação com o processador de pagamentos externo. O processador é a
// fonte de verdade; o registro local é cache de leitura.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/brzap/disparador/internal/lib/sl"
	"github.com/brzap/disparador/internal/models"
)

// Provider consulta de transações no processador externo.
type Provider interface {
	GetPayment(ctx context.Context, accessToken, transactionID string) (*models.TransactionSnapshot, error)
}

// TransactionStore espelho local das transações.
type TransactionStore interface {
	UpdateTransactionStatus(ctx context.Context, transactionID, status string, updatedAt time.Time) (int, error)
}

// Service reconciliador de transações de pagamento.
type Service struct {
	provider     Provider
	transactions TransactionStore
	log          *slog.Logger
}

// New cria o reconciliador.
func New(provider Provider, transactions TransactionStore, log *slog.Logger) *Service {
	return &Service{provider: provider, transactions: transactions, log: log}
}

// Reconcile busca o status atual da transação no processador e espelha
// no registro local. Falha na consulta externa é propagada intacta
// (inclusive código e corpo, via *paymentprovider.APIError) e nenhuma
// mutação local acontece. Falha ao persistir o espelho é registrada,
// mas o snapshot do processador ainda é devolvido ao chamador.
func (s *Service) Reconcile(ctx context.Context, accessToken, transactionID string) (*models.TransactionSnapshot, error) {
	const op = "reconcile.Reconcile"

	snapshot, err := s.provider.GetPayment(ctx, accessToken, transactionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	affected, err := s.transactions.UpdateTransactionStatus(ctx, transactionID, snapshot.Status, time.Now().UTC())
	if err != nil {
		s.log.Error("failed to mirror transaction status locally",
			slog.String("transaction_id", transactionID), sl.Err(err))
	} else if affected == 0 {
		s.log.Warn("transaction not present in local mirror",
			slog.String("transaction_id", transactionID))
	}

	return snapshot, nil
}
