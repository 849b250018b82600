package controller

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/Dend04/Pagina-web-Tienda/internal/model"
	"github.com/Dend04/Pagina-web-Tienda/internal/repository"
)

// fakeStore reproduce en memoria las garantías de los índices únicos.
type fakeStore struct {
	mu         sync.Mutex
	pendientes map[int64]*model.PedidoPendiente
	historial  map[int64]*model.HistorialCompra
	seq        int64

	errMover  error
	errInsert error
	// antesDeMover corre antes de MoverAHistorial, fuera del mutex
	antesDeMover func()
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		pendientes: map[int64]*model.PedidoPendiente{},
		historial:  map[int64]*model.HistorialCompra{},
	}
}

func (f *fakeStore) InsertPendiente(_ context.Context, p *model.PedidoPendiente) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errInsert != nil {
		return f.errInsert
	}
	for _, v := range f.pendientes {
		if v.UsuarioID == p.UsuarioID && v.Estado == model.EstadoPendiente {
			return repository.ErrDuplicate
		}
	}
	f.seq++
	p.ID = f.seq
	cp := *p
	f.pendientes[p.ID] = &cp
	return nil
}

func (f *fakeStore) FindPendienteByID(_ context.Context, id int64) (*model.PedidoPendiente, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pendientes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) FindPendienteActivo(_ context.Context, usuarioID int64, now time.Time) (*model.PedidoPendiente, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.pendientes {
		if p.UsuarioID == usuarioID && p.Estado == model.EstadoPendiente && !p.Expirado(now) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStore) FindPendientesActivos(_ context.Context, now time.Time) ([]*model.PedidoPendiente, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.PedidoPendiente
	for _, p := range f.pendientes {
		if p.Estado == model.EstadoPendiente && !p.Expirado(now) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Fecha.Equal(out[j].Fecha) {
			return out[i].Fecha.After(out[j].Fecha)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (f *fakeStore) CountPendientesActivos(ctx context.Context, now time.Time) (int64, error) {
	out, _ := f.FindPendientesActivos(ctx, now)
	return int64(len(out)), nil
}

func (f *fakeStore) DeletePendiente(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pendientes[id]
	if !ok || p.Estado != model.EstadoPendiente {
		return repository.ErrNotFound
	}
	delete(f.pendientes, id)
	return nil
}

func (f *fakeStore) DeleteExpirados(_ context.Context, usuarioID int64, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, p := range f.pendientes {
		if p.UsuarioID == usuarioID && p.Estado == model.EstadoPendiente && p.Expirado(now) {
			delete(f.pendientes, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) MoverAHistorial(_ context.Context, p *model.PedidoPendiente, h *model.HistorialCompra) error {
	if f.antesDeMover != nil {
		f.antesDeMover()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errMover != nil {
		return f.errMover
	}
	if h.PedidoPendienteID == nil {
		return errors.New("historial sin pedido_pendiente_id")
	}
	if _, ok := f.pendientes[p.ID]; !ok {
		return repository.ErrNotFound
	}
	existe := false
	for _, v := range f.historial {
		if v.PedidoPendienteID != nil && *v.PedidoPendienteID == *h.PedidoPendienteID {
			existe = true
		}
	}
	if !existe {
		f.seq++
		h.ID = f.seq
		cp := *h
		f.historial[h.ID] = &cp
	}
	delete(f.pendientes, p.ID)
	return nil
}

func (f *fakeStore) InsertHistorial(_ context.Context, h *model.HistorialCompra) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	h.ID = f.seq
	cp := *h
	f.historial[h.ID] = &cp
	return nil
}

func (f *fakeStore) FindHistorialByID(_ context.Context, id int64) (*model.HistorialCompra, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	h, ok := f.historial[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *h
	return &cp, nil
}

func (f *fakeStore) FindHistorialByUsuario(ctx context.Context, usuarioID int64) ([]*model.HistorialCompra, error) {
	all, _ := f.FindAllHistorial(ctx)
	var out []*model.HistorialCompra
	for _, h := range all {
		if h.UsuarioID == usuarioID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (f *fakeStore) FindAllHistorial(_ context.Context) ([]*model.HistorialCompra, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.HistorialCompra
	for _, h := range f.historial {
		cp := *h
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Fecha.Equal(out[j].Fecha) {
			return out[i].Fecha.After(out[j].Fecha)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (f *fakeStore) FindUltimoHistorialPendiente(ctx context.Context, usuarioID int64) (*model.HistorialCompra, error) {
	mine, _ := f.FindHistorialByUsuario(ctx, usuarioID)
	for _, h := range mine {
		if h.Estado == model.HistorialPendiente {
			return h, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStore) UpdateHistorialEstado(_ context.Context, id int64, estado string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	h, ok := f.historial[id]
	if !ok {
		return repository.ErrNotFound
	}
	h.Estado = estado
	return nil
}

func (f *fakeStore) historialCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.historial)
}

type fakePublisher struct {
	mu      sync.Mutex
	eventos []string
	err     error
}

func (p *fakePublisher) Publish(_ context.Context, evento string, _ *model.PedidoPendiente) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.eventos = append(p.eventos, evento)
	return p.err
}
