// Package rabbitmq concentra a conexão, a declaração das filas e a
// publicação de mensagens no RabbitMQ. Os eventos de campanha
// (conclusão, falha, cancelamento) são publicados na exchange
// "campanhas" e consumidos pela camada de notificação, fora deste
// serviço.
package rabbitmq

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/streadway/amqp"
)

// QueueConfig associa uma fila à sua routing key.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetCampaignQueues retorna as filas de eventos de campanha.
func GetCampaignQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "campanha.completed", RoutingKey: "completed"},
		{QueueName: "campanha.failed", RoutingKey: "failed"},
		{QueueName: "campanha.cancelled", RoutingKey: "cancelled"},
	}
}

// Connect abre a conexão com o RabbitMQ com retentativas.
func Connect(connection string, retries int, delay time.Duration) (*amqp.Connection, error) {
	const op = "rabbitmq.Connect"
	var conn *amqp.Connection
	var err error

	for range retries {
		conn, err = amqp.Dial(connection)
		if err == nil {
			return conn, nil
		}
		time.Sleep(delay)
	}

	return nil, fmt.Errorf("%s: %w", op, err)
}

// SetupChannel abre o canal, declara a exchange "campanhas" e faz o
// bind das filas informadas.
func SetupChannel(conn *amqp.Connection, queues []QueueConfig) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := ch.Qos(10, 0, false); err != nil {
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	err = ch.ExchangeDeclare(
		"campanhas",
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, q := range queues {
		_, err := ch.QueueDeclare(
			q.QueueName,
			true,
			false,
			false,
			false,
			nil,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to declare queue %s: %w", op, q.QueueName, err)
		}

		err = ch.QueueBind(
			q.QueueName,
			q.RoutingKey,
			"campanhas",
			false,
			nil,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to bind queue %s with routing key %s: %w", op, q.QueueName, q.RoutingKey, err)
		}
	}

	return ch, nil
}

// Publisher adapta um canal AMQP à interface de publicação dos serviços.
type Publisher struct {
	Ch *amqp.Channel
}

// Publish publica a mensagem na exchange com a routing key informada.
func (p *Publisher) Publish(exchange, routingKey string, message any) error {
	return PublishMessage(p.Ch, exchange, routingKey, message)
}

// PublishMessage publica a mensagem serializada em JSON.
func PublishMessage(ch *amqp.Channel, exchange string, routingkey string, message any) error {
	const op = "rabbitmq.PublishMessage"
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = ch.Publish(
		exchange,
		routingkey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
