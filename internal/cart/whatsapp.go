package cart

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/Dend04/Pagina-web-Tienda/internal/model"
	"github.com/shopspring/decimal"
	"github.com/ttacon/libphonenumber"
)

// WhatsApp arma el enlace wa.me con el resumen del pedido para el comercial.
type WhatsApp struct {
	numero string
}

// NewWhatsApp normaliza el número a dígitos E.164 sin "+". Acepta formato
// nacional de la región o el número completo con código de país.
func NewWhatsApp(numero, region string) (*WhatsApp, error) {
	p, err := libphonenumber.Parse(numero, region)
	if err != nil || !libphonenumber.IsValidNumber(p) {
		p, err = libphonenumber.Parse("+"+strings.TrimPrefix(strings.TrimSpace(numero), "+"), "")
		if err != nil {
			return nil, fmt.Errorf("número de WhatsApp inválido %q: %w", numero, err)
		}
		if !libphonenumber.IsValidNumber(p) {
			return nil, fmt.Errorf("número de WhatsApp inválido %q", numero)
		}
	}

	e164 := libphonenumber.Format(p, libphonenumber.E164)
	return &WhatsApp{numero: strings.TrimPrefix(e164, "+")}, nil
}

func (w *WhatsApp) Numero() string {
	return w.numero
}

func Mensaje(items []model.Item, total float64) string {
	lineas := make([]string, 0, len(items))
	for _, it := range items {
		lineas = append(lineas, fmt.Sprintf("🛍️ *%s* - Cantidad: %d - Precio: $%s",
			it.Nombre, it.Cantidad, decimal.NewFromFloat(it.Subtotal).StringFixed(2)))
	}

	var b strings.Builder
	b.WriteString("¡Hola! Quiero realizar el siguiente pedido:\n\n")
	b.WriteString(strings.Join(lineas, "\n"))
	b.WriteString("\n\n💵 *Total: $")
	b.WriteString(decimal.NewFromFloat(total).StringFixed(2))
	b.WriteString("*\n\n¿Pueden confirmar disponibilidad y el costo de envío? Gracias.")
	return b.String()
}

// Link codifica los espacios como %20; algunos clientes de WhatsApp
// muestran el "+" literal.
func (w *WhatsApp) Link(items []model.Item, total float64) string {
	text := strings.ReplaceAll(url.QueryEscape(Mensaje(items, total)), "+", "%20")
	return "https://wa.me/" + w.numero + "?text=" + text
}
