// Package campaign implementa o ciclo de vida das campanhas de disparo:
// a máquina de estados (scheduled, active, paused, completed, cancelled,
// failed) e o despacho em lotes dos destinatários pelo gateway de
// mensagens. Completed, cancelled e failed são terminais.
package campaign

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/brzap/disparador/internal/models"
)

// Erros da máquina de estados, distinguíveis pelo chamador.
var (
	// ErrTerminalStatus transição pedida sobre campanha em status terminal.
	ErrTerminalStatus = errors.New("campaign is in a terminal status")
	// ErrInvalidTransition transição não prevista pela máquina de estados.
	ErrInvalidTransition = errors.New("invalid campaign status transition")
	// ErrSubscriptionInactive assinatura do dono não está ativa; a
	// campanha permanece scheduled, sem cancelamento automático.
	ErrSubscriptionInactive = errors.New("owner subscription is not active")
	// ErrNoOnlineConnection nenhuma conexão online disponível.
	ErrNoOnlineConnection = errors.New("no online connection available")
	// ErrNotDue o horário agendado ainda não chegou.
	ErrNotDue = errors.New("campaign scheduled time has not arrived")
	// ErrHasPending ainda existem destinatários pending.
	ErrHasPending = errors.New("campaign still has pending recipients")
)

// Repository operações de campanha e destinatários no armazenamento.
type Repository interface {
	CreateCampaign(ctx context.Context, campaign *models.Campaign, recipients []*models.Recipient) error
	GetCampaign(ctx context.Context, id string) (*models.Campaign, error)
	ListCampaigns(ctx context.Context, userUID string, limit, offset int) ([]*models.Campaign, error)
	UpdateCampaignStatus(ctx context.Context, id, to string, from ...string) (int, error)
	ListPendingRecipients(ctx context.Context, campaignID string, limit int) ([]*models.Recipient, error)
	CountPendingRecipients(ctx context.Context, campaignID string) (int, error)
	ResolveRecipient(ctx context.Context, recipientID, outcome string, errorReason *string) (bool, error)
	CancelPendingRecipients(ctx context.Context, campaignID, reason string) (int, error)
}

// ProfileStore leitura do perfil de assinatura do dono.
type ProfileStore interface {
	GetProfile(ctx context.Context, userUID string) (*models.Profile, error)
}

// ConnectionRegistry leitura das conexões do dono.
type ConnectionRegistry interface {
	GetConnection(ctx context.Context, id string) (*models.Connection, error)
	HasOnlineConnection(ctx context.Context, userUID string) (bool, error)
}

// Publisher publica eventos de campanha (melhor esforço).
type Publisher interface {
	Publish(exchange, routingKey string, message any) error
}

// Service gerencia o ciclo de vida das campanhas.
type Service struct {
	repo        Repository
	profiles    ProfileStore
	connections ConnectionRegistry
	publisher   Publisher
	log         *slog.Logger
}

// New cria o serviço de campanhas. publisher pode ser nil quando o
// barramento de eventos não está disponível.
func New(repo Repository, profiles ProfileStore, connections ConnectionRegistry, publisher Publisher, log *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		profiles:    profiles,
		connections: connections,
		publisher:   publisher,
		log:         log,
	}
}

// Create valida os dados recebidos e insere a campanha scheduled com
// todos os destinatários pending. Retorna a campanha criada.
func (s *Service) Create(ctx context.Context, userUID string, req models.DummyCampaign) (*models.Campaign, error) {
	const op = "campaign.Create"

	var scheduledAt *time.Time
	if req.ScheduledAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.ScheduledAt)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid scheduled_at: %w", op, err)
		}
		scheduledAt = &parsed
	}

	campaign := &models.Campaign{
		ID:              uuid.NewString(),
		UserUID:         userUID,
		Name:            req.Name,
		Status:          models.CampaignScheduled,
		ConnectionID:    req.ConnectionID,
		CreatedAt:       time.Now().UTC(),
		ScheduledAt:     scheduledAt,
		TotalRecipients: len(req.Recipients),
	}

	recipients := make([]*models.Recipient, 0, len(req.Recipients))
	for _, contact := range req.Recipients {
		recipients = append(recipients, &models.Recipient{
			ID:         uuid.NewString(),
			CampaignID: campaign.ID,
			ContactRef: contact,
			Message:    req.Message,
			State:      models.DeliveryPending,
		})
	}

	if err := s.repo.CreateCampaign(ctx, campaign, recipients); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("campaign created",
		slog.String("campaign_id", campaign.ID),
		slog.Int("recipients", campaign.TotalRecipients))
	return campaign, nil
}

// Read retorna uma campanha pelo ID.
func (s *Service) Read(ctx context.Context, id string) (*models.Campaign, error) {
	return s.repo.GetCampaign(ctx, id)
}

// List retorna as campanhas do usuário com paginação.
func (s *Service) List(ctx context.Context, userUID string, limit, offset int) ([]*models.Campaign, error) {
	return s.repo.ListCampaigns(ctx, userUID, limit, offset)
}

// Start efetiva a transição scheduled -> active. Exige que o horário
// agendado (quando houver) tenha chegado, que a assinatura do dono
// esteja ativa e que exista ao menos uma conexão online. Uma recusa
// deixa a campanha em scheduled, sem cancelamento automático.
func (s *Service) Start(ctx context.Context, id string, now time.Time) (*models.Campaign, error) {
	const op = "campaign.Start"

	campaign, err := s.repo.GetCampaign(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if campaign.IsTerminal() {
		return nil, ErrTerminalStatus
	}
	if campaign.Status != models.CampaignScheduled {
		return nil, ErrInvalidTransition
	}
	if campaign.ScheduledAt != nil && now.Before(*campaign.ScheduledAt) {
		return nil, ErrNotDue
	}

	profile, err := s.profiles.GetProfile(ctx, campaign.UserUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if profile.SubscriptionStatus != models.SubscriptionActive {
		return nil, ErrSubscriptionInactive
	}

	online, err := s.connections.HasOnlineConnection(ctx, campaign.UserUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !online {
		return nil, ErrNoOnlineConnection
	}

	affected, err := s.repo.UpdateCampaignStatus(ctx, id, models.CampaignActive, models.CampaignScheduled)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return nil, ErrInvalidTransition
	}

	campaign.Status = models.CampaignActive
	s.log.Info("campaign started", slog.String("campaign_id", id))
	return campaign, nil
}

// Pause efetiva active -> paused. Nenhum destinatário muda de estado.
func (s *Service) Pause(ctx context.Context, id string) error {
	return s.transition(ctx, id, models.CampaignPaused, models.CampaignActive)
}

// Resume efetiva paused -> active. Também aceita failed -> active: a
// retomada de uma campanha interrompida é sempre uma ação explícita,
// nunca automática.
func (s *Service) Resume(ctx context.Context, id string) error {
	return s.transition(ctx, id, models.CampaignActive, models.CampaignPaused, models.CampaignFailed)
}

// Cancel efetiva active|paused -> cancelled. Os destinatários ainda
// pending são marcados failed com motivo "cancelled"; disparos já em
// voo terminam e reportam o desfecho real, valendo a última escrita na
// linha do destinatário.
func (s *Service) Cancel(ctx context.Context, id string) error {
	const op = "campaign.Cancel"

	campaign, err := s.repo.GetCampaign(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if campaign.IsTerminal() {
		return ErrTerminalStatus
	}
	if campaign.Status != models.CampaignActive && campaign.Status != models.CampaignPaused {
		return ErrInvalidTransition
	}

	marked, err := s.repo.CancelPendingRecipients(ctx, id, "cancelled")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	affected, err := s.repo.UpdateCampaignStatus(ctx, id, models.CampaignCancelled,
		models.CampaignActive, models.CampaignPaused)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return ErrInvalidTransition
	}

	s.log.Info("campaign cancelled",
		slog.String("campaign_id", id), slog.Int("marked_failed", marked))
	s.publishEvent(ctx, id, models.CampaignCancelled)
	return nil
}

// Complete efetiva active -> completed. Só é aceita quando nenhum
// destinatário continua pending; não há corte por error_count.
func (s *Service) Complete(ctx context.Context, id string) error {
	const op = "campaign.Complete"

	pending, err := s.repo.CountPendingRecipients(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if pending > 0 {
		return ErrHasPending
	}

	if err := s.transition(ctx, id, models.CampaignCompleted, models.CampaignActive); err != nil {
		return err
	}
	s.publishEvent(ctx, id, models.CampaignCompleted)
	return nil
}

// Fail efetiva active -> failed quando o despacho se torna
// irrecuperável. Os destinatários pending ficam pending para uma
// retomada explícita: failed significa "execução interrompida", não
// "trabalho perdido".
func (s *Service) Fail(ctx context.Context, id string) error {
	if err := s.transition(ctx, id, models.CampaignFailed, models.CampaignActive); err != nil {
		return err
	}
	s.publishEvent(ctx, id, models.CampaignFailed)
	return nil
}

func (s *Service) transition(ctx context.Context, id, to string, from ...string) error {
	const op = "campaign.transition"

	affected, err := s.repo.UpdateCampaignStatus(ctx, id, to, from...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected > 0 {
		s.log.Info("campaign status changed", slog.String("campaign_id", id), slog.String("status", to))
		return nil
	}

	campaign, err := s.repo.GetCampaign(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if campaign.IsTerminal() {
		return ErrTerminalStatus
	}
	return ErrInvalidTransition
}

type campaignEvent struct {
	CampaignID string `json:"campaign_id"`
	Status     string `json:"status"`
	UserUID    string `json:"user_uid,omitempty"`
	Name       string `json:"name,omitempty"`
	Sent       int    `json:"sent_count"`
	Delivered  int    `json:"delivered_count"`
	Errors     int    `json:"error_count"`
	Total      int    `json:"total_recipients"`
}

// publishEvent publica o evento terminal no barramento, melhor esforço.
func (s *Service) publishEvent(ctx context.Context, id, status string) {
	if s.publisher == nil {
		return
	}
	event := campaignEvent{CampaignID: id, Status: status}
	if campaign, err := s.repo.GetCampaign(ctx, id); err == nil {
		event.UserUID = campaign.UserUID
		event.Name = campaign.Name
		event.Sent = campaign.SentCount
		event.Delivered = campaign.DeliveredCount
		event.Errors = campaign.ErrorCount
		event.Total = campaign.TotalRecipients
	}
	if err := s.publisher.Publish("campanhas", status, event); err != nil {
		s.log.Warn("failed to publish campaign event",
			slog.String("campaign_id", id), slog.String("status", status), slog.Any("err", err))
	}
}
