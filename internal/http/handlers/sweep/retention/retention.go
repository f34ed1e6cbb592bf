// Package retention implementa o gatilho HTTP da varredura diária de
// retenção de campanhas.
package retention

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/brzap/disparador/internal/lib/sl"
	"github.com/brzap/disparador/internal/models"
)

// Service interface da varredura de retenção.
type Service interface {
	Sweep(ctx context.Context, now time.Time, maxBatch int) (*models.RetentionSweepResult, error)
}

// Handler gatilho da varredura de retenção.
type Handler struct {
	log      *slog.Logger
	service  Service
	maxBatch int
}

// New cria o Handler com o limite de candidatos por execução.
func New(log *slog.Logger, service Service, maxBatch int) *Handler {
	return &Handler{log: log, service: service, maxBatch: maxBatch}
}

type sweepResponse struct {
	Success bool   `json:"success"`
	Deleted int    `json:"deleted"`
	Errors  int    `json:"errors"`
	Total   int    `json:"total"`
	Message string `json:"message"`
}

// ServeHTTP godoc
// @Summary Executar varredura de retenção
// @Description Remove campanhas terminais antigas e seus destinatários, até o limite por execução.
// @Tags Sweeps
// @Produce json
// @Success 200 {object} map[string]any "Resultado da varredura"
// @Failure 500 {object} response.ErrorResponse "Falha ao ler candidatos"
// @Router /sweeps/retention [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.sweep.retention"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	result, err := h.service.Sweep(r.Context(), time.Now().UTC(), h.maxBatch)
	if err != nil {
		log.Error("retention sweep aborted", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, sweepResponse{Success: false, Message: "failed to read candidates"})
		return
	}

	log.Info("retention sweep finished",
		slog.Int("deleted", result.Deleted),
		slog.Int("errors", result.Errors),
		slog.Int("total", result.TotalCandidates))
	render.JSON(w, r, sweepResponse{
		Success: true,
		Deleted: result.Deleted,
		Errors:  result.Errors,
		Total:   result.TotalCandidates,
		Message: "cleanup finished",
	})
}
