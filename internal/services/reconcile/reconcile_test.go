package reconcile

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/brzap/disparador/internal/models"
	"github.com/brzap/disparador/internal/paymentprovider"
)

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) GetPayment(ctx context.Context, accessToken, transactionID string) (*models.TransactionSnapshot, error) {
	args := m.Called(ctx, accessToken, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TransactionSnapshot), args.Error(1)
}

type MockTransactionStore struct {
	mock.Mock
}

func (m *MockTransactionStore) UpdateTransactionStatus(ctx context.Context, transactionID, status string, updatedAt time.Time) (int, error) {
	args := m.Called(ctx, transactionID, status, updatedAt)
	return args.Int(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestReconcileService_Reconcile(t *testing.T) {
	snapshot := &models.TransactionSnapshot{
		TransactionID: "txn-1",
		Status:        "approved",
		Amount:        4990,
		Currency:      "BRL",
	}

	t.Run("sucesso - status espelhado localmente", func(t *testing.T) {
		provider := new(MockProvider)
		store := new(MockTransactionStore)
		service := New(provider, store, newNoopLogger())

		provider.On("GetPayment", mock.Anything, "token-1", "txn-1").Return(snapshot, nil).Once()
		store.On("UpdateTransactionStatus", mock.Anything, "txn-1", "approved", mock.AnythingOfType("time.Time")).
			Return(1, nil).Once()

		got, err := service.Reconcile(context.Background(), "token-1", "txn-1")

		assert.NoError(t, err)
		assert.Equal(t, snapshot, got)
		provider.AssertExpectations(t)
		store.AssertExpectations(t)
	})

	t.Run("erro do processador é propagado intacto e nada muda localmente", func(t *testing.T) {
		provider := new(MockProvider)
		store := new(MockTransactionStore)
		service := New(provider, store, newNoopLogger())

		apiErr := &paymentprovider.APIError{StatusCode: 404, Body: `{"message":"Payment not found"}`}
		provider.On("GetPayment", mock.Anything, "token-1", "txn-missing").Return(nil, apiErr).Once()
		// Nenhum UpdateTransactionStatus esperado

		got, err := service.Reconcile(context.Background(), "token-1", "txn-missing")

		assert.Nil(t, got)
		var gotAPIErr *paymentprovider.APIError
		assert.ErrorAs(t, err, &gotAPIErr)
		assert.Equal(t, 404, gotAPIErr.StatusCode)
		assert.Equal(t, `{"message":"Payment not found"}`, gotAPIErr.Body)
		provider.AssertExpectations(t)
		store.AssertExpectations(t)
	})

	t.Run("falha ao persistir o espelho ainda devolve o snapshot", func(t *testing.T) {
		provider := new(MockProvider)
		store := new(MockTransactionStore)
		service := New(provider, store, newNoopLogger())

		provider.On("GetPayment", mock.Anything, "token-1", "txn-1").Return(snapshot, nil).Once()
		store.On("UpdateTransactionStatus", mock.Anything, "txn-1", "approved", mock.AnythingOfType("time.Time")).
			Return(0, errors.New("db error")).Once()

		got, err := service.Reconcile(context.Background(), "token-1", "txn-1")

		assert.NoError(t, err)
		assert.Equal(t, snapshot, got)
		provider.AssertExpectations(t)
		store.AssertExpectations(t)
	})

	t.Run("transação ausente no espelho local não é erro", func(t *testing.T) {
		provider := new(MockProvider)
		store := new(MockTransactionStore)
		service := New(provider, store, newNoopLogger())

		provider.On("GetPayment", mock.Anything, "token-1", "txn-1").Return(snapshot, nil).Once()
		store.On("UpdateTransactionStatus", mock.Anything, "txn-1", "approved", mock.AnythingOfType("time.Time")).
			Return(0, nil).Once()

		got, err := service.Reconcile(context.Background(), "token-1", "txn-1")

		assert.NoError(t, err)
		assert.Equal(t, snapshot, got)
		provider.AssertExpectations(t)
		store.AssertExpectations(t)
	})
}
