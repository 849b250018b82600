package repository

import (
	"context"
	"fmt"

	"github.com/Dend04/Pagina-web-Tienda/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (m *MongoStore) InsertHistorial(ctx context.Context, h *model.HistorialCompra) error {
	id, err := m.nextID(ctx, "historial_compras")
	if err != nil {
		return err
	}
	h.ID = id

	_, err = m.historial.InsertOne(ctx, h)
	return err
}

func (m *MongoStore) FindHistorialByID(ctx context.Context, id int64) (*model.HistorialCompra, error) {
	var res model.HistorialCompra
	err := m.historial.FindOne(ctx, bson.M{"id": id}).Decode(&res)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (m *MongoStore) FindHistorialByUsuario(ctx context.Context, usuarioID int64) ([]*model.HistorialCompra, error) {
	return m.findHistorial(ctx, bson.M{"usuario_id": usuarioID})
}

func (m *MongoStore) FindAllHistorial(ctx context.Context) ([]*model.HistorialCompra, error) {
	out, err := m.findHistorial(ctx, bson.M{})
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(out))
	for _, h := range out {
		ids = append(ids, h.UsuarioID)
	}
	usuarios, err := m.usuariosPorID(ctx, uniqueIDs(ids))
	if err != nil {
		return nil, fmt.Errorf("buscando clientes: %w", err)
	}
	for _, h := range out {
		h.Usuario = usuarios[h.UsuarioID]
	}
	return out, nil
}

func (m *MongoStore) FindUltimoHistorialPendiente(ctx context.Context, usuarioID int64) (*model.HistorialCompra, error) {
	var res model.HistorialCompra
	opts := options.FindOne().SetSort(bson.D{{Key: "fecha", Value: -1}})
	err := m.historial.FindOne(ctx, bson.M{
		"usuario_id": usuarioID,
		"estado":     model.HistorialPendiente,
	}, opts).Decode(&res)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (m *MongoStore) UpdateHistorialEstado(ctx context.Context, id int64, estado string) error {
	res, err := m.historial.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": bson.M{"estado": estado}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoStore) findHistorial(ctx context.Context, filter bson.M) ([]*model.HistorialCompra, error) {
	opts := options.Find().SetSort(bson.D{{Key: "fecha", Value: -1}, {Key: "id", Value: -1}})
	cur, err := m.historial.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*model.HistorialCompra
	for cur.Next(ctx) {
		var v model.HistorialCompra
		if err := cur.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, &v)
	}
	return out, cur.Err()
}
