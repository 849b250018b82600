package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Dend04/Pagina-web-Tienda/internal/model"
	"github.com/Dend04/Pagina-web-Tienda/internal/repository/migrations"
	"github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

const uniqueViolation = "23505"

// PostgresStore es la alternativa relacional a MongoStore (STORE_DRIVER=postgres).
// Aceptar un pedido corre en una sola transacción.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate aplica las migraciones embebidas con goose.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, s.db, "."); err != nil {
		return fmt.Errorf("aplicando migraciones: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// ---- pedidos pendientes ----

const pendienteCols = `p.id, p.usuario_id, p.items, p.total, p.estado, p.fecha, p.expira_en`

func scanPendiente(row rowScanner, extra ...any) (*model.PedidoPendiente, error) {
	var p model.PedidoPendiente
	var items []byte
	dest := append([]any{&p.ID, &p.UsuarioID, &items, &p.Total, &p.Estado, &p.Fecha, &p.ExpiraEn}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &p.Items); err != nil {
		return nil, fmt.Errorf("items del pedido %d: %w", p.ID, err)
	}
	return &p, nil
}

func (s *PostgresStore) InsertPendiente(ctx context.Context, p *model.PedidoPendiente) error {
	items, err := json.Marshal(p.Items)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO pedidos_pendientes (usuario_id, items, total, estado, fecha, expira_en)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err = s.db.QueryRowContext(ctx, query, p.UsuarioID, items, p.Total, p.Estado, p.Fecha, p.ExpiraEn).Scan(&p.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (s *PostgresStore) FindPendienteByID(ctx context.Context, id int64) (*model.PedidoPendiente, error) {
	query := `SELECT ` + pendienteCols + ` FROM pedidos_pendientes p WHERE p.id = $1`
	p, err := scanPendiente(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

func (s *PostgresStore) FindPendienteActivo(ctx context.Context, usuarioID int64, now time.Time) (*model.PedidoPendiente, error) {
	query := `
		SELECT ` + pendienteCols + `
		FROM pedidos_pendientes p
		WHERE p.usuario_id = $1 AND p.estado = $2 AND p.expira_en >= $3
		ORDER BY p.fecha DESC
		LIMIT 1
	`
	p, err := scanPendiente(s.db.QueryRowContext(ctx, query, usuarioID, model.EstadoPendiente, now))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

func (s *PostgresStore) FindPendientesActivos(ctx context.Context, now time.Time) ([]*model.PedidoPendiente, error) {
	query := `
		SELECT ` + pendienteCols + `, u.nombre_usuario, u.correo
		FROM pedidos_pendientes p
		LEFT JOIN usuarios u ON u.id = p.usuario_id
		WHERE p.estado = $1 AND p.expira_en >= $2
		ORDER BY p.fecha DESC, p.id DESC
	`
	rows, err := s.db.QueryContext(ctx, query, model.EstadoPendiente, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.PedidoPendiente
	for rows.Next() {
		var nombre, correo sql.NullString
		p, err := scanPendiente(rows, &nombre, &correo)
		if err != nil {
			return nil, err
		}
		p.Usuario = resumen(nombre, correo)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CountPendientesActivos(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pedidos_pendientes WHERE estado = $1 AND expira_en >= $2`,
		model.EstadoPendiente, now,
	).Scan(&count)
	return count, err
}

func (s *PostgresStore) DeletePendiente(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM pedidos_pendientes WHERE id = $1 AND estado = $2`,
		id, model.EstadoPendiente,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteExpirados(ctx context.Context, usuarioID int64, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM pedidos_pendientes WHERE usuario_id = $1 AND estado = $2 AND expira_en < $3`,
		usuarioID, model.EstadoPendiente, now,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// MoverAHistorial borra y copia en la misma transacción. El DELETE va primero:
// si el pendiente ya no existe (rechazado o vencido) no se escribe historial.
// ON CONFLICT hace que reintentar tras un fallo no duplique el registro.
func (s *PostgresStore) MoverAHistorial(ctx context.Context, p *model.PedidoPendiente, h *model.HistorialCompra) error {
	items, err := json.Marshal(h.Items)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM pedidos_pendientes WHERE id = $1 AND estado = $2`,
		p.ID, model.EstadoPendiente,
	)
	if err != nil {
		return fmt.Errorf("eliminando pendiente %d: %w", p.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO historial_compras (usuario_id, items, total, estado, fecha, pedido_pendiente_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (pedido_pendiente_id) DO NOTHING
	`, h.UsuarioID, items, h.Total, h.Estado, h.Fecha, h.PedidoPendienteID)
	if err != nil {
		return fmt.Errorf("copiando al historial: %w", err)
	}

	return tx.Commit()
}

// ---- historial ----

const historialCols = `h.id, h.usuario_id, h.items, h.total, h.estado, h.fecha, h.pedido_pendiente_id, h.observaciones`

func scanHistorial(row rowScanner, extra ...any) (*model.HistorialCompra, error) {
	var h model.HistorialCompra
	var items []byte
	var pedidoID sql.NullInt64
	var obs sql.NullString
	dest := append([]any{&h.ID, &h.UsuarioID, &items, &h.Total, &h.Estado, &h.Fecha, &pedidoID, &obs}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &h.Items); err != nil {
		return nil, fmt.Errorf("items del historial %d: %w", h.ID, err)
	}
	if pedidoID.Valid {
		h.PedidoPendienteID = &pedidoID.Int64
	}
	h.Observaciones = obs.String
	return &h, nil
}

func (s *PostgresStore) InsertHistorial(ctx context.Context, h *model.HistorialCompra) error {
	items, err := json.Marshal(h.Items)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO historial_compras (usuario_id, items, total, estado, fecha)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	return s.db.QueryRowContext(ctx, query, h.UsuarioID, items, h.Total, h.Estado, h.Fecha).Scan(&h.ID)
}

func (s *PostgresStore) FindHistorialByID(ctx context.Context, id int64) (*model.HistorialCompra, error) {
	h, err := scanHistorial(s.db.QueryRowContext(ctx, `SELECT `+historialCols+` FROM historial_compras h WHERE h.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return h, err
}

func (s *PostgresStore) FindHistorialByUsuario(ctx context.Context, usuarioID int64) ([]*model.HistorialCompra, error) {
	query := `
		SELECT ` + historialCols + `
		FROM historial_compras h
		WHERE h.usuario_id = $1
		ORDER BY h.fecha DESC, h.id DESC
	`
	rows, err := s.db.QueryContext(ctx, query, usuarioID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.HistorialCompra
	for rows.Next() {
		h, err := scanHistorial(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *PostgresStore) FindAllHistorial(ctx context.Context) ([]*model.HistorialCompra, error) {
	query := `
		SELECT ` + historialCols + `, u.nombre_usuario, u.correo
		FROM historial_compras h
		LEFT JOIN usuarios u ON u.id = h.usuario_id
		ORDER BY h.fecha DESC, h.id DESC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.HistorialCompra
	for rows.Next() {
		var nombre, correo sql.NullString
		h, err := scanHistorial(rows, &nombre, &correo)
		if err != nil {
			return nil, err
		}
		h.Usuario = resumen(nombre, correo)
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *PostgresStore) FindUltimoHistorialPendiente(ctx context.Context, usuarioID int64) (*model.HistorialCompra, error) {
	query := `
		SELECT ` + historialCols + `
		FROM historial_compras h
		WHERE h.usuario_id = $1 AND h.estado = $2
		ORDER BY h.fecha DESC
		LIMIT 1
	`
	h, err := scanHistorial(s.db.QueryRowContext(ctx, query, usuarioID, model.HistorialPendiente))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return h, err
}

func (s *PostgresStore) UpdateHistorialEstado(ctx context.Context, id int64, estado string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE historial_compras SET estado = $1 WHERE id = $2`, estado, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func resumen(nombre, correo sql.NullString) *model.UsuarioResumen {
	if !nombre.Valid && !correo.Valid {
		return nil
	}
	return &model.UsuarioResumen{NombreUsuario: nombre.String, Correo: correo.String}
}
