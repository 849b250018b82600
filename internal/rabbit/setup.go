package rabbit

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dend04/Pagina-web-Tienda/internal/service"
	"github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

const (
	ExchangeCheckout = "checkout_realizado"
	QueueCheckout    = "tienda_pedidos_checkout"
)

// SetupConsumers suscribe el servicio al exchange de checkout. Los mensajes
// se confirman a mano; los inválidos se descartan y los fallos de
// almacenamiento vuelven a la cola una vez.
func SetupConsumers(ctx context.Context, ch *amqp091.Channel, svc *service.PedidoService, logger logrus.FieldLogger) error {
	consumer := NewCheckoutConsumer(svc, logger)

	// 1. Declarar exchange y queue
	if err := ch.ExchangeDeclare(ExchangeCheckout, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declarando exchange %s: %w", ExchangeCheckout, err)
	}
	q, err := ch.QueueDeclare(
		QueueCheckout,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("declarando queue: %w", err)
	}

	// 2. Bindear al exchange fanout
	if err := ch.QueueBind(q.Name, "", ExchangeCheckout, false, nil); err != nil {
		return fmt.Errorf("binding exchange: %w", err)
	}

	// 3. Consumir
	msgs, err := ch.Consume(
		q.Name,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("consumiendo queue: %w", err)
	}

	go func() {
		for m := range msgs {
			err := consumer.Handle(ctx, m.Body)
			switch {
			case err == nil, errors.Is(err, ErrMensajeInvalido):
				_ = m.Ack(false)
			default:
				_ = m.Nack(false, !m.Redelivered)
			}
		}
		logger.Warn("canal de checkout cerrado")
	}()

	logger.WithField("exchange", ExchangeCheckout).Info("🐰 Suscrito a exchange (fanout)")
	return nil
}
