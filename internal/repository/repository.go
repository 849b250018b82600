package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dend04/Pagina-web-Tienda/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound  = errors.New("registro no encontrado")
	ErrDuplicate = errors.New("registro duplicado")
)

// Mongo implementation
type MongoStore struct {
	db         *mongo.Database
	pendientes *mongo.Collection
	historial  *mongo.Collection
	usuarios   *mongo.Collection
	counters   *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		db:         db,
		pendientes: db.Collection("pedidos_pendientes"),
		historial:  db.Collection("historial_compras"),
		usuarios:   db.Collection("usuarios"),
		counters:   db.Collection("counters"),
	}
}

func (m *MongoStore) Ping(ctx context.Context) error {
	return m.db.Client().Ping(ctx, nil)
}

// EnsureIndexes crea los índices de los que depende la consistencia:
// un solo pedido pendiente por usuario y un solo registro de historial por pedido aceptado.
func (m *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := m.pendientes.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{
			Keys: bson.D{{Key: "usuario_id", Value: 1}},
			Options: options.Index().
				SetName("uniq_pendiente_por_usuario").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"estado": model.EstadoPendiente}),
		},
		{Keys: bson.D{{Key: "estado", Value: 1}, {Key: "expira_en", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("índices de pedidos_pendientes: %w", err)
	}

	_, err = m.historial.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{
			Keys: bson.D{{Key: "pedido_pendiente_id", Value: 1}},
			Options: options.Index().
				SetName("uniq_historial_por_pedido").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"pedido_pendiente_id": bson.M{"$exists": true}}),
		},
		{Keys: bson.D{{Key: "usuario_id", Value: 1}, {Key: "fecha", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("índices de historial_compras: %w", err)
	}
	return nil
}

// nextID entrega ids enteros monótonos por colección
func (m *MongoStore) nextID(ctx context.Context, name string) (int64, error) {
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := m.counters.FindOneAndUpdate(ctx, bson.M{"_id": name}, bson.M{"$inc": bson.M{"seq": 1}}, opts).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("generando id de %s: %w", name, err)
	}
	return doc.Seq, nil
}

// usuariosPorID resuelve nombre y correo de los clientes para los listados del comercial
func (m *MongoStore) usuariosPorID(ctx context.Context, ids []int64) (map[int64]*model.UsuarioResumen, error) {
	out := make(map[int64]*model.UsuarioResumen, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	cur, err := m.usuarios.Find(ctx, bson.M{"id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var u model.Usuario
		if err := cur.Decode(&u); err != nil {
			return nil, err
		}
		out[u.ID] = &model.UsuarioResumen{NombreUsuario: u.NombreUsuario, Correo: u.Correo}
	}
	return out, cur.Err()
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
