// Package create implementa o handler HTTP de criação de campanhas.
//
// O Handler recebe o JSON com os dados do disparo, valida, extrai o
// UID do usuário do contexto e cria a campanha scheduled com todos os
// destinatários pending.
package create

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/brzap/disparador/internal/http/middlewarectx"
	"github.com/brzap/disparador/internal/http/response"
	"github.com/brzap/disparador/internal/lib/sl"
	"github.com/brzap/disparador/internal/models"
)

// Service interface da criação de campanhas.
type Service interface {
	Create(ctx context.Context, userUID string, req models.DummyCampaign) (*models.Campaign, error)
}

// Handler trata as requisições de criação de campanha.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New cria o Handler com o logger e o serviço informados.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Criar nova campanha de disparo
// @Description Cria uma campanha scheduled com os destinatários informados.
// @Tags Campaigns
// @Accept json
// @Produce json
// @Param request body models.DummyCampaign true "Dados da campanha"
// @Success 200 {object} map[string]any "Campanha criada"
// @Failure 400 {object} response.ErrorResponse "JSON inválido"
// @Failure 401 {object} response.ErrorResponse "Usuário não autenticado"
// @Failure 422 {object} response.ErrorResponse "Erro de validação"
// @Failure 500 {object} response.ErrorResponse "Erro ao criar a campanha"
// @Router /campaigns [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.campaign.create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyCampaign
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	campaign, err := h.service.Create(r.Context(), userUID, req)
	if err != nil {
		log.Error("failed to create campaign", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not create campaign"))
		return
	}

	log.Info("campaign created", slog.String("campaign_id", campaign.ID))
	render.JSON(w, r, response.OKWithData(campaign))
}
