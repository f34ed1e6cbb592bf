// Package dispatch implementa o handler HTTP que executa um lote de
// despacho de uma campanha active.
package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/brzap/disparador/internal/http/middlewarectx"
	"github.com/brzap/disparador/internal/http/response"
	"github.com/brzap/disparador/internal/lib/sl"
	"github.com/brzap/disparador/internal/models"
	campaignservice "github.com/brzap/disparador/internal/services/campaign"
)

// Service operações usadas pelo despacho.
type Service interface {
	Read(ctx context.Context, id string) (*models.Campaign, error)
	DispatchBatch(ctx context.Context, sender campaignservice.Sender, id string, batchSize, workers int) (*campaignservice.DispatchResult, error)
}

// Handler executa um lote de despacho.
type Handler struct {
	log       *slog.Logger
	service   Service
	sender    campaignservice.Sender
	batchSize int
	workers   int
}

// New cria o Handler com o gateway e os parâmetros de lote.
func New(log *slog.Logger, service Service, sender campaignservice.Sender, batchSize, workers int) *Handler {
	return &Handler{
		log:       log,
		service:   service,
		sender:    sender,
		batchSize: batchSize,
		workers:   workers,
	}
}

// ServeHTTP godoc
// @Summary Despachar lote da campanha
// @Description Envia até um lote de destinatários pending pelo gateway de mensagens.
// @Tags Campaigns
// @Produce json
// @Param id path string true "ID da campanha"
// @Success 200 {object} map[string]any "Resultado do lote"
// @Failure 404 {object} response.ErrorResponse "Campanha não encontrada"
// @Failure 409 {object} response.ErrorResponse "Campanha não está active"
// @Router /campaigns/{id}/dispatch [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.campaign.dispatch"
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

	result, err := h.service.DispatchBatch(r.Context(), h.sender, id, h.batchSize, h.workers)
	if err != nil {
		switch {
		case errors.Is(err, campaignservice.ErrTerminalStatus),
			errors.Is(err, campaignservice.ErrInvalidTransition),
			errors.Is(err, campaignservice.ErrNoOnlineConnection):
			log.Error("dispatch refused", slog.String("campaign_id", id), sl.Err(err))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(err.Error()))
		default:
			log.Error("failed to dispatch batch", slog.String("campaign_id", id), sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not dispatch batch"))
		}
		return
	}

	log.Info("batch dispatched", slog.String("campaign_id", id), slog.Int("attempted", result.Attempted))
	render.JSON(w, r, response.OKWithData(result))
}
