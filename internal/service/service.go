package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/Dend04/Pagina-web-Tienda/internal/model"
	"github.com/Dend04/Pagina-web-Tienda/internal/repository"
	"github.com/sirupsen/logrus"
)

// Interfaz que debe implementar repository para los pedidos pendientes
type PedidoRepository interface {
	// InsertPendiente devuelve repository.ErrDuplicate si el usuario ya tiene
	// una fila en estado pendiente (índice único parcial).
	InsertPendiente(ctx context.Context, p *model.PedidoPendiente) error
	FindPendienteByID(ctx context.Context, id int64) (*model.PedidoPendiente, error)
	FindPendienteActivo(ctx context.Context, usuarioID int64, now time.Time) (*model.PedidoPendiente, error)
	FindPendientesActivos(ctx context.Context, now time.Time) ([]*model.PedidoPendiente, error)
	CountPendientesActivos(ctx context.Context, now time.Time) (int64, error)
	DeletePendiente(ctx context.Context, id int64) error
	DeleteExpirados(ctx context.Context, usuarioID int64, now time.Time) (int64, error)
	// MoverAHistorial copia el pedido al historial (idempotente por
	// h.PedidoPendienteID) y borra el pendiente. Devuelve repository.ErrNotFound
	// si el pendiente ya no existe; en ese caso no escribe historial.
	MoverAHistorial(ctx context.Context, p *model.PedidoPendiente, h *model.HistorialCompra) error
}

// EventPublisher notifica los cambios del ciclo de vida (RabbitMQ en producción)
type EventPublisher interface {
	Publish(ctx context.Context, evento string, p *model.PedidoPendiente) error
}

// Locker obtiene un lock distribuido; release nunca es nil si err es nil.
// Si otro proceso tiene el lock el error envuelve ErrLockOcupado.
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// Eventos publicados
const (
	EventoPedidoCreado    = "pedido_creado"
	EventoPedidoAceptado  = "pedido_aceptado"
	EventoPedidoRechazado = "pedido_rechazado"
	EventoPedidoExpirado  = "pedido_expirado"
)

type Accion string

const (
	AccionAceptar  Accion = "aceptar"
	AccionRechazar Accion = "rechazar"
)

// Errores de negocio exportados (los usa el controller)
var (
	ErrUnauthenticated   = errors.New("No autorizado")
	ErrForbidden         = errors.New("Acceso denegado")
	ErrInvalidInput      = errors.New("Datos incompletos")
	ErrPedidoDuplicado   = errors.New("Ya tienes un pedido pendiente")
	ErrNotFound          = errors.New("Pedido no encontrado")
	ErrAlreadyProcessed  = errors.New("El pedido ya fue procesado")
	ErrExpired           = errors.New("El pedido ha expirado")
	ErrAccionInvalida    = errors.New("Acción no válida")
	ErrInvalidTransition = errors.New("Transición de estado inválida")
	ErrEnProceso         = errors.New("El pedido se está procesando, intenta de nuevo")
)

// ErrLockOcupado lo envuelven los Locker cuando el lock pertenece a otro proceso.
var ErrLockOcupado = errors.New("lock ocupado")

const lockTTL = 10 * time.Second

type PedidoService struct {
	repo      PedidoRepository
	ttl       time.Duration
	logger    logrus.FieldLogger
	publisher EventPublisher
	locker    Locker
	now       func() time.Time
}

func NewPedidoService(r PedidoRepository, ttl time.Duration, logger logrus.FieldLogger) *PedidoService {
	return &PedidoService{
		repo:   r,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

func (s *PedidoService) SetPublisher(p EventPublisher) {
	s.publisher = p
}

func (s *PedidoService) SetLocker(l Locker) {
	s.locker = l
}

// CreatePendiente registra el pedido del usuario con vencimiento now+TTL.
// Un usuario no puede tener dos pedidos pendientes vigentes.
func (s *PedidoService) CreatePendiente(ctx context.Context, usuarioID int64, items []model.Item, total float64) (*model.PedidoPendiente, error) {
	if usuarioID <= 0 {
		return nil, ErrUnauthenticated
	}
	if err := validarPedido(items, total); err != nil {
		return nil, err
	}

	release, err := s.lock(ctx, fmt.Sprintf("lock:pedido-usuario:%d", usuarioID))
	if err != nil {
		return nil, err
	}
	defer release()

	now := s.now().UTC()

	existente, err := s.repo.FindPendienteActivo(ctx, usuarioID, now)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("buscando pedido vigente: %w", err)
	}
	if existente != nil {
		return nil, ErrPedidoDuplicado
	}

	// Los vencidos del usuario ocupan el índice único; se limpian aquí
	if n, err := s.repo.DeleteExpirados(ctx, usuarioID, now); err != nil {
		return nil, fmt.Errorf("limpiando pedidos vencidos: %w", err)
	} else if n > 0 {
		s.logger.WithFields(logrus.Fields{"usuario_id": usuarioID, "eliminados": n}).Info("pedidos vencidos eliminados")
	}

	pedido := &model.PedidoPendiente{
		UsuarioID: usuarioID,
		Items:     append([]model.Item(nil), items...),
		Total:     total,
		Estado:    model.EstadoPendiente,
		Fecha:     now,
		ExpiraEn:  now.Add(s.ttl),
	}

	if err := s.repo.InsertPendiente(ctx, pedido); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrPedidoDuplicado
		}
		return nil, fmt.Errorf("guardando pedido pendiente: %w", err)
	}

	s.publish(ctx, EventoPedidoCreado, pedido)
	return pedido, nil
}

// ListPendientes devuelve los pedidos vigentes, más nuevos primero.
// No borra los vencidos, solo los excluye.
func (s *PedidoService) ListPendientes(ctx context.Context, rol string) ([]*model.PedidoPendiente, error) {
	if rol != model.RolComercial {
		return nil, ErrForbidden
	}
	pedidos, err := s.repo.FindPendientesActivos(ctx, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("listando pedidos pendientes: %w", err)
	}
	return pedidos, nil
}

// CountPendientes devuelve 0 a quien no es comercial en lugar de un error.
func (s *PedidoService) CountPendientes(ctx context.Context, rol string) (int64, error) {
	if rol != model.RolComercial {
		return 0, nil
	}
	n, err := s.repo.CountPendientesActivos(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("contando pedidos pendientes: %w", err)
	}
	return n, nil
}

// PendienteActual es el pedido vigente del usuario, o nil si no tiene.
func (s *PedidoService) PendienteActual(ctx context.Context, usuarioID int64) (*model.PedidoPendiente, error) {
	if usuarioID <= 0 {
		return nil, ErrUnauthenticated
	}
	p, err := s.repo.FindPendienteActivo(ctx, usuarioID, s.now().UTC())
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("buscando pedido vigente: %w", err)
	}
	return p, nil
}

// Resolver acepta o rechaza un pedido pendiente. Devuelve el mensaje para el cliente.
func (s *PedidoService) Resolver(ctx context.Context, id int64, rol string, accion Accion) (string, error) {
	if rol != model.RolComercial {
		return "", ErrForbidden
	}
	if accion != AccionAceptar && accion != AccionRechazar {
		return "", ErrAccionInvalida
	}

	release, err := s.lock(ctx, fmt.Sprintf("lock:pedido:%d", id))
	if err != nil {
		return "", err
	}
	defer release()

	pedido, err := s.repo.FindPendienteByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("buscando pedido %d: %w", id, err)
	}

	// procesando es una aceptación que no terminó: solo se puede reintentar aceptando
	reintento := pedido.Estado == model.EstadoProcesando && accion == AccionAceptar
	if pedido.Estado != model.EstadoPendiente && !reintento {
		return "", ErrAlreadyProcessed
	}

	now := s.now().UTC()
	if !reintento && pedido.Expirado(now) {
		if err := s.repo.DeletePendiente(ctx, id); err != nil && !errors.Is(err, repository.ErrNotFound) {
			s.logger.WithError(err).WithField("pedido_id", id).Error("no se pudo eliminar el pedido vencido")
		}
		s.publish(ctx, EventoPedidoExpirado, pedido)
		return "", ErrExpired
	}

	switch accion {
	case AccionAceptar:
		registro := &model.HistorialCompra{
			UsuarioID:         pedido.UsuarioID,
			Items:             pedido.Items,
			Total:             pedido.Total,
			Estado:            model.HistorialEntregado,
			Fecha:             now,
			PedidoPendienteID: &pedido.ID,
		}
		if err := s.repo.MoverAHistorial(ctx, pedido, registro); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return "", ErrNotFound
			}
			return "", fmt.Errorf("moviendo pedido %d al historial: %w", id, err)
		}
		s.publish(ctx, EventoPedidoAceptado, pedido)
		return "Pedido aceptado y movido a historial", nil

	default:
		if err := s.repo.DeletePendiente(ctx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return "", ErrNotFound
			}
			return "", fmt.Errorf("eliminando pedido %d: %w", id, err)
		}
		s.publish(ctx, EventoPedidoRechazado, pedido)
		return "Pedido rechazado y eliminado", nil
	}
}

func (s *PedidoService) publish(ctx context.Context, evento string, p *model.PedidoPendiente) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, evento, p); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"evento":    evento,
			"pedido_id": p.ID,
		}).Warn("no se pudo publicar el evento")
	}
}

// lock es best-effort si Redis no responde: se sigue sin lock y la unicidad
// la garantiza el almacenamiento. Si otra réplica tiene el lock devuelve ErrEnProceso.
func (s *PedidoService) lock(ctx context.Context, key string) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	release, err := s.locker.Obtain(ctx, key, lockTTL)
	if errors.Is(err, ErrLockOcupado) {
		s.logger.WithField("key", key).Info("lock ocupado por otra operación")
		return nil, ErrEnProceso
	}
	if err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("procediendo sin lock")
		return func() {}, nil
	}
	return release, nil
}

func validarPedido(items []model.Item, total float64) error {
	if len(items) == 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		return ErrInvalidInput
	}
	for _, it := range items {
		if it.Cantidad <= 0 || it.Precio < 0 || it.Subtotal < 0 {
			return ErrInvalidInput
		}
		if it.Nombre == "" && it.ProductoID <= 0 {
			return ErrInvalidInput
		}
	}
	return nil
}
