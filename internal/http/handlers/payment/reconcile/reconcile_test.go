package reconcile_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brzap/disparador/internal/http/handlers/payment/reconcile"
	"github.com/brzap/disparador/internal/models"
	"github.com/brzap/disparador/internal/paymentprovider"
)

type mockService struct {
	ReconcileFunc func(ctx context.Context, accessToken, transactionID string) (*models.TransactionSnapshot, error)
}

func (m *mockService) Reconcile(ctx context.Context, accessToken, transactionID string) (*models.TransactionSnapshot, error) {
	return m.ReconcileFunc(ctx, accessToken, transactionID)
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return discardHandler{} }
func (discardHandler) WithGroup(string) slog.Handler             { return discardHandler{} }

func makeLogger() *slog.Logger {
	return slog.New(discardHandler{})
}

func TestReconcileHandler(t *testing.T) {
	snapshot := &models.TransactionSnapshot{
		TransactionID: "txn-1",
		Status:        "approved",
		Amount:        4990,
		Currency:      "BRL",
	}

	t.Run("success with query params", func(t *testing.T) {
		service := &mockService{
			ReconcileFunc: func(ctx context.Context, accessToken, transactionID string) (*models.TransactionSnapshot, error) {
				require.Equal(t, "token-1", accessToken)
				require.Equal(t, "txn-1", transactionID)
				return snapshot, nil
			},
		}

		req := httptest.NewRequest(http.MethodPost,
			"/payments/reconcile?access_token=token-1&transaction_id=txn-1", nil)
		w := httptest.NewRecorder()

		handler := reconcile.New(makeLogger(), service)
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, true, resp["success"])
		assert.Equal(t, "approved", resp["status"])
		assert.Equal(t, "txn-1", resp["id"])
	})

	t.Run("success with JSON body", func(t *testing.T) {
		service := &mockService{
			ReconcileFunc: func(ctx context.Context, accessToken, transactionID string) (*models.TransactionSnapshot, error) {
				require.Equal(t, "token-1", accessToken)
				require.Equal(t, "txn-1", transactionID)
				return snapshot, nil
			},
		}

		body, _ := json.Marshal(models.DummyReconcile{AccessToken: "token-1", TransactionID: "txn-1"})
		req := httptest.NewRequest(http.MethodPost, "/payments/reconcile", bytes.NewReader(body))
		w := httptest.NewRecorder()

		handler := reconcile.New(makeLogger(), service)
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "approved")
	})

	t.Run("missing transaction_id", func(t *testing.T) {
		service := &mockService{
			ReconcileFunc: func(ctx context.Context, accessToken, transactionID string) (*models.TransactionSnapshot, error) {
				t.Fatal("service should not be called on validation error")
				return nil, nil
			},
		}

		req := httptest.NewRequest(http.MethodPost, "/payments/reconcile?access_token=token-1", nil)
		w := httptest.NewRecorder()

		handler := reconcile.New(makeLogger(), service)
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "TransactionID")
	})

	t.Run("missing access_token", func(t *testing.T) {
		service := &mockService{
			ReconcileFunc: func(ctx context.Context, accessToken, transactionID string) (*models.TransactionSnapshot, error) {
				t.Fatal("service should not be called on validation error")
				return nil, nil
			},
		}

		req := httptest.NewRequest(http.MethodPost, "/payments/reconcile?transaction_id=txn-1", nil)
		w := httptest.NewRecorder()

		handler := reconcile.New(makeLogger(), service)
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "AccessToken")
	})

	t.Run("upstream error passes status and body through", func(t *testing.T) {
		service := &mockService{
			ReconcileFunc: func(ctx context.Context, accessToken, transactionID string) (*models.TransactionSnapshot, error) {
				return nil, &paymentprovider.APIError{
					StatusCode: 404,
					Body:       `{"message":"Payment not found"}`,
				}
			},
		}

		req := httptest.NewRequest(http.MethodPost,
			"/payments/reconcile?access_token=token-1&transaction_id=txn-missing", nil)
		w := httptest.NewRecorder()

		handler := reconcile.New(makeLogger(), service)
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "Payment not found")
		assert.Contains(t, w.Body.String(), `"success":false`)
	})

	t.Run("unexpected service error", func(t *testing.T) {
		service := &mockService{
			ReconcileFunc: func(ctx context.Context, accessToken, transactionID string) (*models.TransactionSnapshot, error) {
				return nil, errors.New("connection refused")
			},
		}

		req := httptest.NewRequest(http.MethodPost,
			"/payments/reconcile?access_token=token-1&transaction_id=txn-1", nil)
		w := httptest.NewRecorder()

		handler := reconcile.New(makeLogger(), service)
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "could not reconcile transaction")
	})
}
