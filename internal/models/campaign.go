package models

import "time"

// Status possíveis de uma campanha de disparo.
// Completed, Cancelled e Failed são terminais: uma campanha nesses
// status nunca muda de status novamente.
const (
	CampaignScheduled = "scheduled"
	CampaignActive    = "active"
	CampaignPaused    = "paused"
	CampaignCompleted = "completed"
	CampaignCancelled = "cancelled"
	CampaignFailed    = "failed"
)

// Estados de entrega de um destinatário.
const (
	DeliveryPending   = "pending"
	DeliverySent      = "sent"
	DeliveryDelivered = "delivered"
	DeliveryFailed    = "failed"
)

// Campaign representa um disparo em massa com seus contadores.
// SentCount conta todo destinatário que saiu de pending (tentativa
// feita), DeliveredCount e ErrorCount contam os subconjuntos com
// entrega confirmada e com falha. Vale sempre:
// SentCount + destinatários pending = TotalRecipients.
type Campaign struct {
	ID              string     `json:"id"`
	UserUID         string     `json:"user_uid"`
	Name            string     `json:"name"`
	Status          string     `json:"status"`
	ConnectionID    string     `json:"connection_id"`
	CreatedAt       time.Time  `json:"created_at"`
	ScheduledAt     *time.Time `json:"scheduled_at,omitempty"`
	SentCount       int        `json:"sent_count"`
	DeliveredCount  int        `json:"delivered_count"`
	ErrorCount      int        `json:"error_count"`
	TotalRecipients int        `json:"total_recipients"`
}

// IsTerminal informa se o status é terminal.
func (c *Campaign) IsTerminal() bool {
	return c.Status == CampaignCompleted || c.Status == CampaignCancelled || c.Status == CampaignFailed
}

// Recipient representa um contato alvo dentro de uma campanha.
type Recipient struct {
	ID          string  `json:"id"`
	CampaignID  string  `json:"campaign_id"`
	ContactRef  string  `json:"contact_ref"`
	Message     string  `json:"message"`
	State       string  `json:"delivery_state"`
	ErrorReason *string `json:"error_reason,omitempty"`
}

// DummyCampaign recebe os dados de criação de campanha vindos do JSON,
// antes da validação. A data agendada chega como string RFC3339.
type DummyCampaign struct {
	Name         string   `json:"name" validate:"required"`
	ConnectionID string   `json:"connection_id" validate:"required"`
	ScheduledAt  string   `json:"scheduled_at,omitempty" validate:"omitempty"`
	Message      string   `json:"message" validate:"required"`
	Recipients   []string `json:"recipients" validate:"required,min=1,dive,required"`
}

// RetentionSweepResult resultado agregado da varredura de retenção.
type RetentionSweepResult struct {
	Deleted         int `json:"deleted"`
	Errors          int `json:"errors"`
	TotalCandidates int `json:"total"`
}
