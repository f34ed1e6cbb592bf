// Package expiration implementa o gatilho HTTP da varredura diária de
// expiração de assinaturas. É invocado pelo agendador externo, que
// garante uma única execução por vez; este serviço não impõe
// single-flight internamente.
package expiration

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

// Service interface da varredura de expiração.
type Service interface {
	Sweep(ctx context.Context, now time.Time) (*models.ExpirationSweepResult, error)
}

// Handler gatilho da varredura de expiração.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New cria o Handler com o logger e o serviço informados.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

type sweepResponse struct {
	Success   bool `json:"success"`
	Processed int  `json:"processed"`
	Scanned   int  `json:"scanned"`
}

// ServeHTTP godoc
// @Summary Executar varredura de expiração
// @Description Cancela perfis active cuja assinatura venceu. Idempotente.
// @Tags Sweeps
// @Produce json
// @Success 200 {object} map[string]any "Resultado da varredura"
// @Failure 500 {object} response.ErrorResponse "Falha ao ler candidatos"
// @Router /sweeps/expiration [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.sweep.expiration"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	result, err := h.service.Sweep(r.Context(), time.Now().UTC())
	if err != nil {
		log.Error("expiration sweep aborted", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, sweepResponse{Success: false})
		return
	}

	log.Info("expiration sweep finished",
		slog.Int("scanned", result.Scanned),
		slog.Int("transitioned", result.Transitioned))
	render.JSON(w, r, sweepResponse{
		Success:   true,
		Processed: result.Transitioned,
		Scanned:   result.Scanned,
	})
}
