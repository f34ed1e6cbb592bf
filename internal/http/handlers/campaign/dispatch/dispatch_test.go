package dispatch_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brzap/disparador/internal/gateway"
	"github.com/brzap/disparador/internal/http/handlers/campaign/dispatch"
	"github.com/brzap/disparador/internal/http/middlewarectx"
	"github.com/brzap/disparador/internal/http/response"
	"github.com/brzap/disparador/internal/models"
	campaignservice "github.com/brzap/disparador/internal/services/campaign"
)

type mockService struct {
	ReadFunc          func(ctx context.Context, id string) (*models.Campaign, error)
	DispatchBatchFunc func(ctx context.Context, sender campaignservice.Sender, id string, batchSize, workers int) (*campaignservice.DispatchResult, error)
}

func (m *mockService) Read(ctx context.Context, id string) (*models.Campaign, error) {
	return m.ReadFunc(ctx, id)
}

func (m *mockService) DispatchBatch(ctx context.Context, sender campaignservice.Sender, id string, batchSize, workers int) (*campaignservice.DispatchResult, error) {
	return m.DispatchBatchFunc(ctx, sender, id, batchSize, workers)
}

type mockSender struct{}

func (mockSender) SendText(ctx context.Context, instanceID, number, text string) (*gateway.SendResult, error) {
	return &gateway.SendResult{Result: gateway.ResultSent}, nil
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return discardHandler{} }
func (discardHandler) WithGroup(string) slog.Handler             { return discardHandler{} }

func makeLogger() *slog.Logger {
	return slog.New(discardHandler{})
}

func newDispatchRequest(id, userUID string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	req := httptest.NewRequest(http.MethodPost, "/campaigns/"+id+"/dispatch", nil)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = context.WithValue(ctx, middlewarectx.UserUID, userUID)
	return req.WithContext(ctx)
}

func TestDispatchHandler(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		service := &mockService{
			ReadFunc: func(ctx context.Context, id string) (*models.Campaign, error) {
				return &models.Campaign{ID: id, UserUID: "user-1", Status: models.CampaignActive}, nil
			},
			DispatchBatchFunc: func(ctx context.Context, sender campaignservice.Sender, id string, batchSize, workers int) (*campaignservice.DispatchResult, error) {
				require.Equal(t, "camp-1", id)
				require.Equal(t, 50, batchSize)
				require.Equal(t, 4, workers)
				return &campaignservice.DispatchResult{
					Attempted: 3,
					Sent:      1,
					Delivered: 1,
					Failed:    1,
					Remaining: 7,
					Status:    models.CampaignActive,
				}, nil
			},
		}
		handler := dispatch.New(makeLogger(), service, mockSender{}, 50, 4)

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, newDispatchRequest("camp-1", "user-1"))

		require.Equal(t, http.StatusOK, rr.Code)

		var resp response.Response
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, response.StatusOK, resp.Status)

		data, ok := resp.Data.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, float64(3), data["attempted"])
		assert.Equal(t, float64(7), data["remaining"])
		assert.Equal(t, models.CampaignActive, data["status"])
	})

	t.Run("campaign of another user", func(t *testing.T) {
		service := &mockService{
			ReadFunc: func(ctx context.Context, id string) (*models.Campaign, error) {
				return &models.Campaign{ID: id, UserUID: "user-2", Status: models.CampaignActive}, nil
			},
		}
		handler := dispatch.New(makeLogger(), service, mockSender{}, 50, 4)

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, newDispatchRequest("camp-1", "user-1"))

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Contains(t, rr.Body.String(), "campaign not found")
	})

	t.Run("campaign not active", func(t *testing.T) {
		service := &mockService{
			ReadFunc: func(ctx context.Context, id string) (*models.Campaign, error) {
				return &models.Campaign{ID: id, UserUID: "user-1", Status: models.CampaignPaused}, nil
			},
			DispatchBatchFunc: func(ctx context.Context, sender campaignservice.Sender, id string, batchSize, workers int) (*campaignservice.DispatchResult, error) {
				return nil, campaignservice.ErrInvalidTransition
			},
		}
		handler := dispatch.New(makeLogger(), service, mockSender{}, 50, 4)

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, newDispatchRequest("camp-1", "user-1"))

		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.Contains(t, rr.Body.String(), campaignservice.ErrInvalidTransition.Error())
	})

	t.Run("no online connection", func(t *testing.T) {
		service := &mockService{
			ReadFunc: func(ctx context.Context, id string) (*models.Campaign, error) {
				return &models.Campaign{ID: id, UserUID: "user-1", Status: models.CampaignActive}, nil
			},
			DispatchBatchFunc: func(ctx context.Context, sender campaignservice.Sender, id string, batchSize, workers int) (*campaignservice.DispatchResult, error) {
				return nil, campaignservice.ErrNoOnlineConnection
			},
		}
		handler := dispatch.New(makeLogger(), service, mockSender{}, 50, 4)

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, newDispatchRequest("camp-1", "user-1"))

		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.Contains(t, rr.Body.String(), campaignservice.ErrNoOnlineConnection.Error())
	})

	t.Run("service failure", func(t *testing.T) {
		service := &mockService{
			ReadFunc: func(ctx context.Context, id string) (*models.Campaign, error) {
				return &models.Campaign{ID: id, UserUID: "user-1", Status: models.CampaignActive}, nil
			},
			DispatchBatchFunc: func(ctx context.Context, sender campaignservice.Sender, id string, batchSize, workers int) (*campaignservice.DispatchResult, error) {
				return nil, errors.New("database is down")
			},
		}
		handler := dispatch.New(makeLogger(), service, mockSender{}, 50, 4)

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, newDispatchRequest("camp-1", "user-1"))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Contains(t, rr.Body.String(), "could not dispatch batch")
	})
}
