package retention

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
)

type MockCampaignStore struct {
	mock.Mock
}

func (m *MockCampaignStore) ListExpiredTerminalCampaigns(ctx context.Context, cutoff time.Time, limit int) ([]*models.Campaign, error) {
	args := m.Called(ctx, cutoff, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Campaign), args.Error(1)
}

func (m *MockCampaignStore) DeleteRecipientsByCampaign(ctx context.Context, campaignID string) (int, error) {
	args := m.Called(ctx, campaignID)
	return args.Int(0), args.Error(1)
}

func (m *MockCampaignStore) DeleteCampaign(ctx context.Context, campaignID string) (int, error) {
	args := m.Called(ctx, campaignID)
	return args.Int(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestRetentionService_Sweep(t *testing.T) {
	now := time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC)
	cutoff := now.AddDate(0, 0, -5)

	oldCampaign := &models.Campaign{ID: "camp-1", Status: models.CampaignCompleted}
	otherCampaign := &models.Campaign{ID: "camp-2", Status: models.CampaignCancelled}

	tests := []struct {
		name        string
		setupMocks  func(*MockCampaignStore)
		wantErr     bool
		wantDeleted int
		wantErrors  int
		wantTotal   int
	}{
		{
			name: "sucesso - destinatários removidos antes da campanha",
			setupMocks: func(c *MockCampaignStore) {
				c.On("ListExpiredTerminalCampaigns", mock.Anything, cutoff, 1000).
					Return([]*models.Campaign{oldCampaign}, nil).Once()
				c.On("DeleteRecipientsByCampaign", mock.Anything, "camp-1").Return(40, nil).Once()
				c.On("DeleteCampaign", mock.Anything, "camp-1").Return(1, nil).Once()
			},
			wantDeleted: 1,
			wantTotal:   1,
		},
		{
			name: "sucesso - nenhum candidato",
			setupMocks: func(c *MockCampaignStore) {
				c.On("ListExpiredTerminalCampaigns", mock.Anything, cutoff, 1000).
					Return([]*models.Campaign{}, nil).Once()
			},
		},
		{
			name: "falha nos destinatários pula a campanha inteira",
			setupMocks: func(c *MockCampaignStore) {
				c.On("ListExpiredTerminalCampaigns", mock.Anything, cutoff, 1000).
					Return([]*models.Campaign{oldCampaign, otherCampaign}, nil).Once()
				c.On("DeleteRecipientsByCampaign", mock.Anything, "camp-1").
					Return(0, errors.New("delete error")).Once()
				// DeleteCampaign de camp-1 NÃO é chamado: campanha fica intacta
				c.On("DeleteRecipientsByCampaign", mock.Anything, "camp-2").Return(10, nil).Once()
				c.On("DeleteCampaign", mock.Anything, "camp-2").Return(1, nil).Once()
			},
			wantDeleted: 1,
			wantErrors:  1,
			wantTotal:   2,
		},
		{
			name: "falha na linha da campanha conta como erro",
			setupMocks: func(c *MockCampaignStore) {
				c.On("ListExpiredTerminalCampaigns", mock.Anything, cutoff, 1000).
					Return([]*models.Campaign{oldCampaign}, nil).Once()
				c.On("DeleteRecipientsByCampaign", mock.Anything, "camp-1").Return(40, nil).Once()
				c.On("DeleteCampaign", mock.Anything, "camp-1").
					Return(0, errors.New("delete error")).Once()
			},
			wantErrors: 1,
			wantTotal:  1,
		},
		{
			name: "erro na leitura dos candidatos falha a chamada",
			setupMocks: func(c *MockCampaignStore) {
				c.On("ListExpiredTerminalCampaigns", mock.Anything, cutoff, 1000).
					Return(nil, errors.New("db error")).Once()
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			campaigns := new(MockCampaignStore)
			service := New(campaigns, newNoopLogger(), 5)

			tt.setupMocks(campaigns)

			result, err := service.Sweep(context.Background(), now, 1000)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantDeleted, result.Deleted)
			assert.Equal(t, tt.wantErrors, result.Errors)
			assert.Equal(t, tt.wantTotal, result.TotalCandidates)
			campaigns.AssertExpectations(t)
		})
	}
}

func TestRetentionService_SweepBatchCap(t *testing.T) {
	now := time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC)
	cutoff := now.AddDate(0, 0, -5)

	campaigns := new(MockCampaignStore)
	service := New(campaigns, newNoopLogger(), 5)

	// maxBatch inválido cai no teto padrão de 1000
	campaigns.On("ListExpiredTerminalCampaigns", mock.Anything, cutoff, 1000).
		Return([]*models.Campaign{}, nil).Once()

	_, err := service.Sweep(context.Background(), now, 0)

	assert.NoError(t, err)
	campaigns.AssertExpectations(t)
}
