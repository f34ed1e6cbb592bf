// Package start implementa o handler HTTP da transição
// scheduled -> active de uma campanha.
package start

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/brzap/disparador/internal/http/middlewarectx"
	"github.com/brzap/disparador/internal/http/response"
	"github.com/brzap/disparador/internal/lib/sl"
	"github.com/brzap/disparador/internal/models"
	campaignservice "github.com/brzap/disparador/internal/services/campaign"
)

// Service interface do início de campanha.
type Service interface {
	Read(ctx context.Context, id string) (*models.Campaign, error)
	Start(ctx context.Context, id string, now time.Time) (*models.Campaign, error)
}

// Handler trata o início de campanhas.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New cria o Handler com o logger e o serviço informados.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Iniciar campanha
// @Description Transiciona a campanha de scheduled para active. Exige assinatura ativa e conexão online.
// @Tags Campaigns
// @Produce json
// @Param id path string true "ID da campanha"
// @Success 200 {object} map[string]any "Campanha ativa"
// @Failure 404 {object} response.ErrorResponse "Campanha não encontrada"
// @Failure 409 {object} response.ErrorResponse "Transição recusada"
// @Router /campaigns/{id}/start [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.campaign.start"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, _ := r.Context().Value(middlewarectx.UserUID).(string)
	id := chi.URLParam(r, "id")

	existing, err := h.service.Read(r.Context(), id)
	if err != nil || existing.UserUID != userUID {
		log.Error("campaign not found for user", slog.String("campaign_id", id))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("campaign not found"))
		return
	}

	campaign, err := h.service.Start(r.Context(), id, time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, campaignservice.ErrSubscriptionInactive),
			errors.Is(err, campaignservice.ErrNoOnlineConnection),
			errors.Is(err, campaignservice.ErrNotDue),
			errors.Is(err, campaignservice.ErrTerminalStatus),
			errors.Is(err, campaignservice.ErrInvalidTransition):
			log.Error("campaign start refused", slog.String("campaign_id", id), sl.Err(err))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(err.Error()))
		default:
			log.Error("failed to start campaign", slog.String("campaign_id", id), sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not start campaign"))
		}
		return
	}

	log.Info("campaign started", slog.String("campaign_id", id))
	render.JSON(w, r, response.OKWithData(campaign))
}
