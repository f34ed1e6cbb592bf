// Package transition implementa os handlers HTTP das transições
// explícitas de campanha disparadas pelo usuário: pause, resume,
// cancel e complete. As quatro compartilham o mesmo esqueleto, variando
// só a operação do serviço.
package transition

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

// Service operações de transição de campanha.
type Service interface {
	Read(ctx context.Context, id string) (*models.Campaign, error)
	Pause(ctx context.Context, id string) error
	Resume(ctx context.Context, id string) error
	Cancel(ctx context.Context, id string) error
	Complete(ctx context.Context, id string) error
}

// Ações expostas por este handler.
const (
	ActionPause    = "pause"
	ActionResume   = "resume"
	ActionCancel   = "cancel"
	ActionComplete = "complete"
)

// Handler trata uma transição explícita de campanha.
type Handler struct {
	log     *slog.Logger
	service Service
	action  string
}

// New cria o Handler para a ação informada.
func New(log *slog.Logger, service Service, action string) *Handler {
	return &Handler{log: log, service: service, action: action}
}

// ServeHTTP godoc
// @Summary Transicionar campanha
// @Description Aplica pause, resume, cancel ou complete à campanha. Status terminais são imutáveis.
// @Tags Campaigns
// @Produce json
// @Param id path string true "ID da campanha"
// @Success 200 {object} map[string]any "Campanha após a transição"
// @Failure 404 {object} response.ErrorResponse "Campanha não encontrada"
// @Failure 409 {object} response.ErrorResponse "Transição recusada"
// @Router /campaigns/{id}/{action} [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.campaign.transition"
	log := h.log.With(
		slog.String("op", op),
		slog.String("action", h.action),
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

	switch h.action {
	case ActionPause:
		err = h.service.Pause(r.Context(), id)
	case ActionResume:
		err = h.service.Resume(r.Context(), id)
	case ActionCancel:
		err = h.service.Cancel(r.Context(), id)
	case ActionComplete:
		err = h.service.Complete(r.Context(), id)
	default:
		log.Error("unknown transition action")
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("unknown action"))
		return
	}

	if err != nil {
		switch {
		case errors.Is(err, campaignservice.ErrTerminalStatus),
			errors.Is(err, campaignservice.ErrInvalidTransition),
			errors.Is(err, campaignservice.ErrHasPending):
			log.Error("transition refused", slog.String("campaign_id", id), sl.Err(err))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(err.Error()))
		default:
			log.Error("failed to apply transition", slog.String("campaign_id", id), sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not apply transition"))
		}
		return
	}

	campaign, err := h.service.Read(r.Context(), id)
	if err != nil {
		log.Error("failed to reload campaign", slog.String("campaign_id", id), sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not reload campaign"))
		return
	}

	log.Info("campaign transitioned", slog.String("campaign_id", id), slog.String("status", campaign.Status))
	render.JSON(w, r, response.OKWithData(campaign))
}
