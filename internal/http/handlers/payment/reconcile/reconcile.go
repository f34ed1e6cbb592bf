// Package reconcile implementa o handler HTTP da reconciliação de uma
// transação de pagamento.
//
// Os campos access_token e transaction_id podem chegar como par na
// query string ou no corpo JSON; a ausência de qualquer um responde
// HTTP 400. Falha na consulta ao processador repassa o código e o corpo
// originais no envelope de erro, sem mutação local.
package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/brzap/disparador/internal/http/response"
	"github.com/brzap/disparador/internal/lib/sl"
	"github.com/brzap/disparador/internal/models"
	"github.com/brzap/disparador/internal/paymentprovider"
)

// Service interface da reconciliação.
type Service interface {
	Reconcile(ctx context.Context, accessToken, transactionID string) (*models.TransactionSnapshot, error)
}

// Handler trata as requisições de reconciliação.
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

type successResponse struct {
	Success bool `json:"success"`
	*models.TransactionSnapshot
}

// ServeHTTP godoc
// @Summary Reconciliar transação de pagamento
// @Description Consulta o status atual da transação no processador e espelha localmente.
// @Tags Payments
// @Accept json
// @Produce json
// @Param access_token query string false "Token do processador (alternativa ao corpo)"
// @Param transaction_id query string false "ID da transação (alternativa ao corpo)"
// @Success 200 {object} map[string]any "Status atual da transação"
// @Failure 400 {object} response.ErrorResponse "Campo obrigatório ausente"
// @Failure 502 {object} response.UpstreamErrorResponse "Erro do processador, repassado"
// @Router /payments/reconcile [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.reconcile"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	req := models.DummyReconcile{
		AccessToken:   r.URL.Query().Get("access_token"),
		TransactionID: r.URL.Query().Get("transaction_id"),
	}
	if req.AccessToken == "" || req.TransactionID == "" {
		var body models.DummyReconcile
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
			if req.AccessToken == "" {
				req.AccessToken = body.AccessToken
			}
			if req.TransactionID == "" {
				req.TransactionID = body.TransactionID
			}
		}
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	snapshot, err := h.service.Reconcile(r.Context(), req.AccessToken, req.TransactionID)
	if err != nil {
		var apiErr *paymentprovider.APIError
		if errors.As(err, &apiErr) {
			log.Error("payment provider returned error",
				slog.Int("status_code", apiErr.StatusCode),
				slog.String("transaction_id", req.TransactionID))
			w.WriteHeader(apiErr.StatusCode)
			render.JSON(w, r, response.UpstreamError("payment provider error", apiErr.Body))
			return
		}
		log.Error("failed to reconcile transaction", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.UpstreamError("could not reconcile transaction", ""))
		return
	}

	log.Info("transaction reconciled",
		slog.String("transaction_id", req.TransactionID),
		slog.String("status", snapshot.Status))
	render.JSON(w, r, successResponse{Success: true, TransactionSnapshot: snapshot})
}
