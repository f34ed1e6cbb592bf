package models

import "time"

// Transaction espelha localmente uma cobrança do processador de
// pagamentos. O registro local é cache: a fonte de verdade é sempre o
// processador externo.
type Transaction struct {
	TransactionID string    `json:"transaction_id"`
	UserUID       string    `json:"user_uid"`
	Status        string    `json:"status"`
	Amount        int64     `json:"amount"`
	Currency      string    `json:"currency"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TransactionSnapshot estado atual de uma transação lido do
// processador externo.
type TransactionSnapshot struct {
	TransactionID string    `json:"id"`
	Status        string    `json:"status"`
	StatusDetail  string    `json:"status_detail,omitempty"`
	Amount        int64     `json:"transaction_amount"`
	Currency      string    `json:"currency_id"`
	DateApproved  *time.Time `json:"date_approved,omitempty"`
}

// DummyReconcile recebe os dados da requisição de reconciliação.
// Os dois campos podem vir tanto no corpo JSON quanto na query string.
type DummyReconcile struct {
	AccessToken   string `json:"access_token" validate:"required"`
	TransactionID string `json:"transaction_id" validate:"required"`
}
