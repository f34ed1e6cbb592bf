package models

// Status possíveis de uma conexão (instância de mensagens).
const (
	ConnectionOnline     = "online"
	ConnectionOffline    = "offline"
	ConnectionConnecting = "connecting"
)

// Connection representa uma instância de mensagens de um usuário.
// Toda conexão ocupa uma vaga do plano, independente do status.
type Connection struct {
	ID      string `json:"id"`
	UserUID string `json:"user_uid"`
	Name    string `json:"name"`
	Status  string `json:"status"`
}

// LimitStatus resultado da avaliação do limite de conexões do plano.
type LimitStatus struct {
	Plan                 string `json:"plan"`
	MaxConnections       int    `json:"max_connections"`
	CurrentConnections   int    `json:"current_connections"`
	RemainingConnections int    `json:"remaining_connections"`
	CanCreateConnection  bool   `json:"can_create_connection"`
}
