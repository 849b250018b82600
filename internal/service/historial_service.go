package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/Dend04/Pagina-web-Tienda/internal/model"
	"github.com/Dend04/Pagina-web-Tienda/internal/repository"
)

type HistorialRepository interface {
	InsertHistorial(ctx context.Context, h *model.HistorialCompra) error
	FindHistorialByID(ctx context.Context, id int64) (*model.HistorialCompra, error)
	FindHistorialByUsuario(ctx context.Context, usuarioID int64) ([]*model.HistorialCompra, error)
	FindAllHistorial(ctx context.Context) ([]*model.HistorialCompra, error)
	FindUltimoHistorialPendiente(ctx context.Context, usuarioID int64) (*model.HistorialCompra, error)
	UpdateHistorialEstado(ctx context.Context, id int64, estado string) error
}

var ErrHistorialNotFound = errors.New("Registro de historial no encontrado")

// Transiciones permitidas del historial. rechazado y entregado son finales.
var historialTransitions = map[string][]string{
	model.HistorialPendiente: {model.HistorialAceptado, model.HistorialRechazado},
	model.HistorialAceptado:  {model.HistorialEntregado},
}

type HistorialService struct {
	repo HistorialRepository
	now  func() time.Time
}

func NewHistorialService(r HistorialRepository) *HistorialService {
	return &HistorialService{repo: r, now: time.Now}
}

// Create guarda una compra directamente en el historial, en estado pendiente.
func (s *HistorialService) Create(ctx context.Context, usuarioID int64, items []model.Item, total float64) (*model.HistorialCompra, error) {
	if usuarioID <= 0 {
		return nil, ErrUnauthenticated
	}
	if err := validarPedido(items, total); err != nil {
		return nil, err
	}

	h := &model.HistorialCompra{
		UsuarioID: usuarioID,
		Items:     append([]model.Item(nil), items...),
		Total:     total,
		Estado:    model.HistorialPendiente,
		Fecha:     s.now().UTC(),
	}
	if err := s.repo.InsertHistorial(ctx, h); err != nil {
		return nil, fmt.Errorf("guardando historial: %w", err)
	}
	return h, nil
}

func (s *HistorialService) GetByUsuario(ctx context.Context, usuarioID int64) ([]*model.HistorialCompra, error) {
	return s.repo.FindHistorialByUsuario(ctx, usuarioID)
}

func (s *HistorialService) GetAll(ctx context.Context, rol string) ([]*model.HistorialCompra, error) {
	if rol != model.RolComercial {
		return nil, ErrForbidden
	}
	return s.repo.FindAllHistorial(ctx)
}

// UltimoPendiente devuelve nil si el usuario no tiene compras sin confirmar.
func (s *HistorialService) UltimoPendiente(ctx context.Context, usuarioID int64) (*model.HistorialCompra, error) {
	h, err := s.repo.FindUltimoHistorialPendiente(ctx, usuarioID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return h, err
}

// AdvanceEstado valida y realiza la transición entre estados del historial.
func (s *HistorialService) AdvanceEstado(ctx context.Context, id int64, nuevo string) error {
	h, err := s.repo.FindHistorialByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrHistorialNotFound
	}
	if err != nil {
		return fmt.Errorf("buscando historial %d: %w", id, err)
	}

	if !slices.Contains(historialTransitions[h.Estado], nuevo) {
		return ErrInvalidTransition
	}

	if err := s.repo.UpdateHistorialEstado(ctx, id, nuevo); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrHistorialNotFound
		}
		return fmt.Errorf("actualizando historial %d: %w", id, err)
	}
	return nil
}
