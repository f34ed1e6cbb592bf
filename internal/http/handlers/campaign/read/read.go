// Package read implementa os handlers HTTP de leitura de campanhas.
package read

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/brzap/disparador/internal/http/middlewarectx"
	"github.com/brzap/disparador/internal/http/response"
	"github.com/brzap/disparador/internal/lib/sl"
	"github.com/brzap/disparador/internal/models"
)

// Service interface de leitura de campanhas.
type Service interface {
	Read(ctx context.Context, id string) (*models.Campaign, error)
	List(ctx context.Context, userUID string, limit, offset int) ([]*models.Campaign, error)
}

// Handler trata leitura e listagem de campanhas.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New cria o Handler com o logger e o serviço informados.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Consultar campanha
// @Description Retorna a campanha com seus contadores de progresso.
// @Tags Campaigns
// @Produce json
// @Param id path string true "ID da campanha"
// @Success 200 {object} map[string]any "Campanha"
// @Failure 404 {object} response.ErrorResponse "Campanha não encontrada"
// @Router /campaigns/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.campaign.read"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, _ := r.Context().Value(middlewarectx.UserUID).(string)
	id := chi.URLParam(r, "id")

	campaign, err := h.service.Read(r.Context(), id)
	if err != nil {
		log.Error("failed to read campaign", slog.String("campaign_id", id), sl.Err(err))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("campaign not found"))
		return
	}
	if campaign.UserUID != userUID {
		log.Error("campaign does not belong to user", slog.String("campaign_id", id))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("campaign not found"))
		return
	}

	render.JSON(w, r, response.OKWithData(campaign))
}

// ListHandler godoc
// @Summary Listar campanhas
// @Description Lista as campanhas do usuário com paginação.
// @Tags Campaigns
// @Produce json
// @Param limit query int false "Limite (padrão 20)"
// @Param offset query int false "Deslocamento (padrão 0)"
// @Success 200 {object} map[string]any "Campanhas"
// @Router /campaigns [get]
func (h *Handler) ListHandler(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.campaign.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	limit := 20
	offset := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	campaigns, err := h.service.List(r.Context(), userUID, limit, offset)
	if err != nil {
		log.Error("failed to list campaigns", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list campaigns"))
		return
	}

	render.JSON(w, r, response.OKWithData(campaigns))
}
