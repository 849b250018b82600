package rabbit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Dend04/Pagina-web-Tienda/internal/dto"
	"github.com/Dend04/Pagina-web-Tienda/internal/model"
	"github.com/Dend04/Pagina-web-Tienda/internal/service"
	"github.com/sirupsen/logrus"
)

// PedidoCreator lo implementa service.PedidoService.
type PedidoCreator interface {
	CreatePendiente(ctx context.Context, usuarioID int64, items []model.Item, total float64) (*model.PedidoPendiente, error)
}

type CheckoutConsumer struct {
	Service PedidoCreator
	logger  logrus.FieldLogger
}

func NewCheckoutConsumer(s PedidoCreator, logger logrus.FieldLogger) *CheckoutConsumer {
	return &CheckoutConsumer{Service: s, logger: logger}
}

// Mensaje publicado por la tienda al confirmar el carrito.
type CheckoutMessage struct {
	CorrelationID string `json:"correlation_id"`
	Exchange      string `json:"exchange"`
	RoutingKey    string `json:"routing_key"`
	Message       struct {
		UsuarioID int64         `json:"usuarioId"`
		Items     []dto.ItemDTO `json:"items"`
		Total     *float64      `json:"total"`
	} `json:"message"`
}

// ErrMensajeInvalido marca mensajes que no tiene sentido reintentar.
var ErrMensajeInvalido = errors.New("mensaje de checkout inválido")

func (c *CheckoutConsumer) Handle(ctx context.Context, msg []byte) error {
	var event CheckoutMessage
	if err := json.Unmarshal(msg, &event); err != nil {
		c.logger.WithError(err).Error("error parseando mensaje de checkout")
		return fmt.Errorf("%w: %v", ErrMensajeInvalido, err)
	}

	log := c.logger.WithFields(logrus.Fields{
		"correlation_id": event.CorrelationID,
		"usuario_id":     event.Message.UsuarioID,
	})
	log.Info("[Rabbit] Evento recibido: checkout_realizado")

	if event.Message.Total == nil {
		log.Warn("checkout descartado: sin total")
		return fmt.Errorf("%w: total requerido", ErrMensajeInvalido)
	}

	pedido, err := c.Service.CreatePendiente(ctx,
		event.Message.UsuarioID,
		dto.ToItems(event.Message.Items),
		*event.Message.Total,
	)
	switch {
	case errors.Is(err, service.ErrPedidoDuplicado),
		errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrUnauthenticated):
		log.WithError(err).Warn("checkout descartado")
		return fmt.Errorf("%w: %v", ErrMensajeInvalido, err)
	case err != nil:
		log.WithError(err).Error("error creando pedido pendiente desde checkout")
		return err
	}

	log.WithField("pedido_id", pedido.ID).Info("pedido pendiente creado desde checkout")
	return nil
}
