// Package models contém as estruturas de domínio do disparador:
// perfil de assinatura, conexões (instâncias de mensagens), campanhas
// de disparo com seus destinatários e transações de pagamento.
// As estruturas Dummy* recebem os dados vindos de requisições JSON
// antes da validação e conversão para os tipos de domínio.
package models

import "time"

// Status de assinatura possíveis de um perfil.
const (
	SubscriptionActive   = "active"
	SubscriptionPastDue  = "past_due"
	SubscriptionCanceled = "canceled"
)

// Planos disponíveis.
const (
	PlanPro      = "pro"
	PlanSuperPro = "super_pro"
)

// Profile representa o estado de assinatura de um usuário.
// SubscriptionEndsAt pode ser nil (assinatura sem data de término).
// A invariante "status active implica ends_at nula ou futura" é
// eventual: violações são corrigidas pela varredura de expiração.
type Profile struct {
	UserUID            string     `json:"user_uid"`
	SubscriptionStatus string     `json:"subscription_status"`
	SubscriptionEndsAt *time.Time `json:"subscription_ends_at,omitempty"`
	Plan               string     `json:"plan"`
	MaxConnections     int        `json:"max_connections"`
}

// ExpirationSweepResult resultado agregado da varredura de expiração.
type ExpirationSweepResult struct {
	Scanned      int `json:"scanned"`
	Transitioned int `json:"transitioned"`
}
