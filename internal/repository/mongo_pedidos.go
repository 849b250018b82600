package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dend04/Pagina-web-Tienda/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func activosFilter(now time.Time) bson.M {
	return bson.M{
		"estado":    model.EstadoPendiente,
		"expira_en": bson.M{"$gte": now},
	}
}

func (m *MongoStore) InsertPendiente(ctx context.Context, p *model.PedidoPendiente) error {
	id, err := m.nextID(ctx, "pedidos_pendientes")
	if err != nil {
		return err
	}
	p.ID = id

	if _, err := m.pendientes.InsertOne(ctx, p); err != nil {
		p.ID = 0
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (m *MongoStore) FindPendienteByID(ctx context.Context, id int64) (*model.PedidoPendiente, error) {
	var res model.PedidoPendiente
	err := m.pendientes.FindOne(ctx, bson.M{"id": id}).Decode(&res)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (m *MongoStore) FindPendienteActivo(ctx context.Context, usuarioID int64, now time.Time) (*model.PedidoPendiente, error) {
	filter := activosFilter(now)
	filter["usuario_id"] = usuarioID

	var res model.PedidoPendiente
	opts := options.FindOne().SetSort(bson.D{{Key: "fecha", Value: -1}})
	err := m.pendientes.FindOne(ctx, filter, opts).Decode(&res)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (m *MongoStore) FindPendientesActivos(ctx context.Context, now time.Time) ([]*model.PedidoPendiente, error) {
	opts := options.Find().SetSort(bson.D{{Key: "fecha", Value: -1}, {Key: "id", Value: -1}})
	cur, err := m.pendientes.Find(ctx, activosFilter(now), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*model.PedidoPendiente
	var ids []int64
	for cur.Next(ctx) {
		var v model.PedidoPendiente
		if err := cur.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, &v)
		ids = append(ids, v.UsuarioID)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}

	usuarios, err := m.usuariosPorID(ctx, uniqueIDs(ids))
	if err != nil {
		return nil, fmt.Errorf("buscando clientes: %w", err)
	}
	for _, p := range out {
		p.Usuario = usuarios[p.UsuarioID]
	}
	return out, nil
}

func (m *MongoStore) CountPendientesActivos(ctx context.Context, now time.Time) (int64, error) {
	return m.pendientes.CountDocuments(ctx, activosFilter(now))
}

func (m *MongoStore) DeletePendiente(ctx context.Context, id int64) error {
	res, err := m.pendientes.DeleteOne(ctx, bson.M{"id": id, "estado": model.EstadoPendiente})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoStore) DeleteExpirados(ctx context.Context, usuarioID int64, now time.Time) (int64, error) {
	res, err := m.pendientes.DeleteMany(ctx, bson.M{
		"usuario_id": usuarioID,
		"estado":     model.EstadoPendiente,
		"expira_en":  bson.M{"$lt": now},
	})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// MoverAHistorial no usa transacción (requiere replica set).
// PASO 1 reclama el pendiente pasándolo a procesando: un rechazo o la limpieza
// de vencidos ya no lo tocan, y si no existe no se escribe historial.
// PASO 2 es un upsert por pedido_pendiente_id, así que repetirlo no duplica.
// Un pedido que quedó en procesando se puede volver a aceptar.
func (m *MongoStore) MoverAHistorial(ctx context.Context, p *model.PedidoPendiente, h *model.HistorialCompra) error {
	if h.PedidoPendienteID == nil {
		return fmt.Errorf("historial sin pedido_pendiente_id")
	}

	// PASO 1: reclamar el pendiente
	claim := bson.M{
		"id":     p.ID,
		"estado": bson.M{"$in": bson.A{model.EstadoPendiente, model.EstadoProcesando}},
	}
	err := m.pendientes.FindOneAndUpdate(ctx, claim, bson.M{"$set": bson.M{"estado": model.EstadoProcesando}}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("reclamando pendiente %d: %w", p.ID, err)
	}

	id, err := m.nextID(ctx, "historial_compras")
	if err != nil {
		return err
	}
	h.ID = id

	// PASO 2: copiar al historial
	filter := bson.M{"pedido_pendiente_id": *h.PedidoPendienteID}
	update := bson.M{"$setOnInsert": h}
	if _, err := m.historial.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("copiando al historial: %w", err)
	}

	// PASO 3: borrar el pendiente
	if _, err := m.pendientes.DeleteOne(ctx, bson.M{"id": p.ID}); err != nil {
		return fmt.Errorf("historial guardado pero el pendiente %d sigue en procesando: %w", p.ID, err)
	}
	return nil
}
