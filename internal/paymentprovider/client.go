// Package paymentprovider implementa o cliente HTTP do processador de
// pagamentos. A autenticação é feita com o bearer token do usuário e a
// consulta de uma transação devolve o status atual no processador, que
// é a fonte de verdade.
package paymentprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/brzap/disparador/internal/models"
)

// APIError representa uma resposta de erro do processador, preservando
// o código HTTP e o corpo originais para repasse ao chamador.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("payment provider returned %d: %s", e.StatusCode, e.Body)
}

// Client cliente do processador de pagamentos.
type Client struct {
	apiURL     string
	httpClient *http.Client
}

// NewClient cria um cliente apontando para a API do processador.
func NewClient(apiURL string, timeout time.Duration) *Client {
	return &Client{
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// GetPayment consulta o status atual de uma transação. Em resposta
// não-2xx retorna *APIError com o código e o corpo originais e nenhum
// snapshot.
func (c *Client) GetPayment(ctx context.Context, accessToken, transactionID string) (*models.TransactionSnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.apiURL+"/v1/payments/"+transactionID, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var snapshot models.TransactionSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}
