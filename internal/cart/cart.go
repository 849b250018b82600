package cart

import (
	"errors"

	"github.com/Dend04/Pagina-web-Tienda/internal/dto"
	"github.com/Dend04/Pagina-web-Tienda/internal/model"
	"github.com/shopspring/decimal"
)

var (
	ErrCantidadInvalida = errors.New("La cantidad debe ser mayor que cero")
	ErrPrecioInvalido   = errors.New("El precio no puede ser negativo")
	ErrCarritoVacio     = errors.New("El carrito está vacío")
)

type BolsaItem struct {
	ProductoID     int64
	Nombre         string
	PrecioUnitario decimal.Decimal
	Cantidad       int
	Subtotal       decimal.Decimal
}

// Bolsa agrupa los productos de una misma categoría (etiqueta).
type Bolsa struct {
	Etiqueta string
	Items    []*BolsaItem
	Total    decimal.Decimal
}

// Carrito mantiene Total y TotalGeneral recalculados tras cada AddItem.
type Carrito struct {
	UsuarioID    int64
	Bolsas       []*Bolsa
	TotalGeneral decimal.Decimal
}

func New(usuarioID int64) *Carrito {
	return &Carrito{UsuarioID: usuarioID}
}

// FromCheckout reconstruye el carrito que envía la tienda. Los subtotales
// se recalculan aquí; no se confía en los del cliente.
func FromCheckout(usuarioID int64, req dto.CheckoutRequest) (*Carrito, error) {
	c := New(usuarioID)
	for _, b := range req.Bolsas {
		for _, it := range b.Items {
			err := c.AddItem(b.Etiqueta, it.ProductoID, it.Nombre, decimal.NewFromFloat(it.PrecioUnitario), it.Cantidad)
			if err != nil {
				return nil, err
			}
		}
	}
	if len(c.Bolsas) == 0 {
		return nil, ErrCarritoVacio
	}
	return c, nil
}

// AddItem suma la cantidad si el producto ya está en la bolsa.
func (c *Carrito) AddItem(etiqueta string, productoID int64, nombre string, precio decimal.Decimal, cantidad int) error {
	if cantidad < 1 {
		return ErrCantidadInvalida
	}
	if precio.IsNegative() {
		return ErrPrecioInvalido
	}

	bolsa := c.bolsa(etiqueta)
	if bolsa == nil {
		bolsa = &Bolsa{Etiqueta: etiqueta}
		c.Bolsas = append(c.Bolsas, bolsa)
	}

	if item := bolsa.item(productoID); item != nil {
		item.Cantidad += cantidad
		item.Subtotal = item.PrecioUnitario.Mul(decimal.NewFromInt(int64(item.Cantidad)))
	} else {
		bolsa.Items = append(bolsa.Items, &BolsaItem{
			ProductoID:     productoID,
			Nombre:         nombre,
			PrecioUnitario: precio,
			Cantidad:       cantidad,
			Subtotal:       precio.Mul(decimal.NewFromInt(int64(cantidad))),
		})
	}

	c.recalcular()
	return nil
}

// Items aplana las bolsas en las líneas de un pedido pendiente.
func (c *Carrito) Items() []model.Item {
	var out []model.Item
	for _, b := range c.Bolsas {
		for _, it := range b.Items {
			out = append(out, model.Item{
				ProductoID: it.ProductoID,
				Nombre:     it.Nombre,
				Cantidad:   it.Cantidad,
				Precio:     it.PrecioUnitario.InexactFloat64(),
				Subtotal:   it.Subtotal.InexactFloat64(),
			})
		}
	}
	return out
}

func (c *Carrito) Total() float64 {
	return c.TotalGeneral.Round(2).InexactFloat64()
}

func (c *Carrito) recalcular() {
	general := decimal.Zero
	for _, b := range c.Bolsas {
		total := decimal.Zero
		for _, it := range b.Items {
			total = total.Add(it.Subtotal)
		}
		b.Total = total
		general = general.Add(total)
	}
	c.TotalGeneral = general
}

func (c *Carrito) bolsa(etiqueta string) *Bolsa {
	for _, b := range c.Bolsas {
		if b.Etiqueta == etiqueta {
			return b
		}
	}
	return nil
}

func (b *Bolsa) item(productoID int64) *BolsaItem {
	for _, it := range b.Items {
		if it.ProductoID == productoID {
			return it
		}
	}
	return nil
}
