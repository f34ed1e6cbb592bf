// Package metrics define os contadores prometheus do serviço,
// expostos em /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DispatchedRecipients conta destinatários resolvidos por desfecho
// (sent, delivered, failed).
var DispatchedRecipients = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "disparador_dispatched_recipients_total",
	Help: "Destinatarios resolvidos pelo disparador, por desfecho.",
}, []string{"outcome"})

// ExpiredSubscriptions conta perfis cancelados pela varredura de expiração.
var ExpiredSubscriptions = promauto.NewCounter(prometheus.CounterOpts{
	Name: "disparador_expired_subscriptions_total",
	Help: "Perfis cancelados pela varredura de expiracao.",
})

// RetentionDeletedCampaigns conta campanhas removidas pela varredura de retenção.
var RetentionDeletedCampaigns = promauto.NewCounter(prometheus.CounterOpts{
	Name: "disparador_retention_deleted_campaigns_total",
	Help: "Campanhas removidas pela varredura de retencao.",
})
