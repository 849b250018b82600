// dto.go
package dto

import "github.com/Dend04/Pagina-web-Tienda/internal/model"

// ItemDTO es una línea del pedido tal como la envía la tienda.
// El validador exige nombre o producto_id (ver validation.RegisterItemRules).
type ItemDTO struct {
	ProductoID int64   `json:"producto_id"`
	Nombre     string  `json:"nombre"`
	Cantidad   int     `json:"cantidad" binding:"gt=0"`
	Precio     float64 `json:"precio" binding:"gte=0"`
	Subtotal   float64 `json:"subtotal" binding:"gte=0"`
}

func ToItems(in []ItemDTO) []model.Item {
	out := make([]model.Item, 0, len(in))
	for _, it := range in {
		out = append(out, model.Item{
			ProductoID: it.ProductoID,
			Nombre:     it.Nombre,
			Cantidad:   it.Cantidad,
			Precio:     it.Precio,
			Subtotal:   it.Subtotal,
		})
	}
	return out
}

// CreatePedidoRequest se usa en POST /pedidos-pendientes y POST /historial
type CreatePedidoRequest struct {
	Items []ItemDTO `json:"items" binding:"required,min=1,dive"`
	Total *float64  `json:"total" binding:"required"`
}

type ResolverPedidoRequest struct {
	Accion string `json:"accion" binding:"required,oneof=aceptar rechazar"`
}

type UpdateHistorialRequest struct {
	Estado string `json:"estado" binding:"required"`
}

// Carrito tal como lo persiste la tienda en el navegador
type BolsaItemDTO struct {
	ProductoID     int64   `json:"producto_id" binding:"required"`
	Nombre         string  `json:"nombre" binding:"required"`
	PrecioUnitario float64 `json:"precio_unitario" binding:"gte=0"`
	Cantidad       int     `json:"cantidad" binding:"gt=0"`
}

type BolsaDTO struct {
	Etiqueta string         `json:"etiqueta" binding:"required"`
	Items    []BolsaItemDTO `json:"items" binding:"required,min=1,dive"`
}

type CheckoutRequest struct {
	Bolsas []BolsaDTO `json:"bolsas" binding:"required,min=1,dive"`
}
