package rabbit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Dend04/Pagina-web-Tienda/internal/model"
	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
)

const ExchangeEventos = "pedidos_eventos"

// EventoMessage usa el mismo sobre que los mensajes que consume el servicio.
type EventoMessage struct {
	CorrelationID string                 `json:"correlation_id"`
	Exchange      string                 `json:"exchange"`
	RoutingKey    string                 `json:"routing_key"`
	Message       *model.PedidoPendiente `json:"message"`
}

type Publisher struct {
	ch *amqp091.Channel
}

// NewPublisher declara el exchange fanout de eventos de pedidos.
func NewPublisher(ch *amqp091.Channel) (*Publisher, error) {
	err := ch.ExchangeDeclare(
		ExchangeEventos,
		"fanout",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("declarando exchange %s: %w", ExchangeEventos, err)
	}
	return &Publisher{ch: ch}, nil
}

func (p *Publisher) Publish(ctx context.Context, evento string, pedido *model.PedidoPendiente) error {
	msg := EventoMessage{
		CorrelationID: uuid.New().String(),
		Exchange:      ExchangeEventos,
		RoutingKey:    evento,
		Message:       pedido,
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return p.ch.PublishWithContext(ctx,
		ExchangeEventos,
		evento, // fanout ignora routing key, queda como tipo de evento
		false,
		false,
		amqp091.Publishing{
			ContentType:   "application/json",
			DeliveryMode:  amqp091.Persistent,
			CorrelationId: msg.CorrelationID,
			Type:          evento,
			Timestamp:     time.Now().UTC(),
			Body:          body,
		},
	)
}
