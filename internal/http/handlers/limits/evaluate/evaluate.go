// Package evaluate implementa o handler HTTP da consulta de limite de
// conexões. É chamado antes da criação de uma conexão: o sistema que
// cria a conexão rejeita a operação quando can_create_connection vem
// false.
package evaluate

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/brzap/disparador/internal/http/middlewarectx"
	"github.com/brzap/disparador/internal/http/response"
	"github.com/brzap/disparador/internal/lib/sl"
	"github.com/brzap/disparador/internal/models"
)

// Service interface da avaliação de limite.
type Service interface {
	Evaluate(ctx context.Context, userUID string) (*models.LimitStatus, error)
}

// Handler trata as consultas de limite de conexões.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New cria o Handler com o logger e o serviço informados.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Consultar limite de conexões
// @Description Retorna o limite de conexões do plano do usuário e se uma nova conexão pode ser criada.
// @Tags Limits
// @Produce json
// @Success 200 {object} map[string]any "Limite avaliado"
// @Failure 401 {object} response.ErrorResponse "Usuário não autenticado"
// @Failure 500 {object} response.ErrorResponse "Erro ao avaliar o limite"
// @Router /limits [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.limits.evaluate"
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

	status, err := h.service.Evaluate(r.Context(), userUID)
	if err != nil {
		log.Error("failed to evaluate connection limit", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not evaluate connection limit"))
		return
	}

	render.JSON(w, r, response.OKWithData(status))
}
