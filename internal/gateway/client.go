// Package gateway implementa o cliente HTTP do gateway externo de
// mensagens, responsável pelo transporte real dos disparos até os
// destinatários. O serviço de campanha só enxerga a interface Sender.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"
)

// Desfechos reportados pelo gateway para um envio.
const (
	ResultSent      = "sent"
	ResultDelivered = "delivered"
	ResultFailed    = "failed"
)

// SendResult desfecho de um envio individual.
type SendResult struct {
	Result string `json:"result"`
	Detail string `json:"detail,omitempty"`
}

// Client cliente HTTP do gateway de mensagens.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient cria um cliente apontando para a instância do gateway.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type sendTextRequest struct {
	Number string `json:"number"`
	Text   string `json:"text"`
}

type sendTextResponse struct {
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// SendText envia uma mensagem de texto pela instância (conexão)
// informada. O desfecho mapeia direto para o estado de entrega do
// destinatário.
func (c *Client) SendText(ctx context.Context, instanceID, number, text string) (*SendResult, error) {
	body, err := json.Marshal(sendTextRequest{Number: number, Text: text})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/message/sendText/"+instanceID, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		raw, _ := io.ReadAll(resp.Body)
		return nil, errors.New("unexpected status " + resp.Status + ": " + string(raw))
	}

	var out sendTextResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}

	switch out.Status {
	case "DELIVERED":
		return &SendResult{Result: ResultDelivered}, nil
	case "PENDING", "SENT":
		return &SendResult{Result: ResultSent}, nil
	default:
		return &SendResult{Result: ResultFailed, Detail: out.Detail}, nil
	}
}
