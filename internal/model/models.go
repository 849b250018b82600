// models.go
package model

import "time"

// Roles que emite el módulo de autenticación
const (
	RolCliente   = "cliente"
	RolComercial = "comercial"
)

// Estados persistidos de un pedido pendiente. Aceptar o rechazar elimina la fila;
// procesando marca un pedido reclamado por una aceptación en curso.
const (
	EstadoPendiente  = "pendiente"
	EstadoProcesando = "procesando"
)

// Estados del historial de compras
const (
	HistorialPendiente = "pendiente"
	HistorialAceptado  = "aceptado"
	HistorialRechazado = "rechazado"
	HistorialEntregado = "entregado"
)

type Item struct {
	ProductoID int64   `bson:"producto_id,omitempty" json:"producto_id,omitempty"`
	Nombre     string  `bson:"nombre" json:"nombre"`
	Cantidad   int     `bson:"cantidad" json:"cantidad"`
	Precio     float64 `bson:"precio" json:"precio"`
	Subtotal   float64 `bson:"subtotal" json:"subtotal"`
}

// UsuarioResumen es la información mínima del cliente que ve el comercial.
type UsuarioResumen struct {
	NombreUsuario string `bson:"nombre_usuario" json:"nombre_usuario"`
	Correo        string `bson:"correo" json:"correo"`
}

type PedidoPendiente struct {
	ID        int64     `bson:"id" json:"id"`
	UsuarioID int64     `bson:"usuario_id" json:"usuario_id"`
	Items     []Item    `bson:"items" json:"items"`
	Total     float64   `bson:"total" json:"total"`
	Estado    string    `bson:"estado" json:"estado"`
	Fecha     time.Time `bson:"fecha" json:"fecha"`
	ExpiraEn  time.Time `bson:"expira_en" json:"expira_en"`

	// Solo se completa en los listados del comercial
	Usuario *UsuarioResumen `bson:"-" json:"usuarios,omitempty"`
}

// Expirado indica si el pedido venció en el instante now.
func (p *PedidoPendiente) Expirado(now time.Time) bool {
	return p.ExpiraEn.Before(now)
}

type HistorialCompra struct {
	ID        int64     `bson:"id" json:"id"`
	UsuarioID int64     `bson:"usuario_id" json:"usuario_id"`
	Items     []Item    `bson:"items" json:"items"`
	Total     float64   `bson:"total" json:"total"`
	Estado    string    `bson:"estado" json:"estado"`
	Fecha     time.Time `bson:"fecha" json:"fecha"`

	// Pedido pendiente del que proviene; clave de idempotencia al aceptar
	PedidoPendienteID *int64 `bson:"pedido_pendiente_id,omitempty" json:"pedido_pendiente_id,omitempty"`
	Observaciones     string `bson:"observaciones,omitempty" json:"observaciones,omitempty"`

	Usuario *UsuarioResumen `bson:"-" json:"usuarios,omitempty"`
}

// Usuario es de solo lectura: lo administra el módulo de registro.
type Usuario struct {
	ID            int64  `bson:"id" json:"id"`
	NombreUsuario string `bson:"nombre_usuario" json:"nombre_usuario"`
	Correo        string `bson:"correo" json:"correo"`
	Rol           string `bson:"rol" json:"rol"`
}
