package controller

import (
	"net/http"

	"github.com/Dend04/Pagina-web-Tienda/internal/cart"
	"github.com/Dend04/Pagina-web-Tienda/internal/dto"
	"github.com/Dend04/Pagina-web-Tienda/internal/middleware"
	"github.com/Dend04/Pagina-web-Tienda/internal/service"
	"github.com/gin-gonic/gin"
)

type CarritoController struct {
	Pedidos  *service.PedidoService
	WhatsApp *cart.WhatsApp
	resp     Responder
}

func NewCarritoController(s *service.PedidoService, wa *cart.WhatsApp, resp Responder) *CarritoController {
	return &CarritoController{Pedidos: s, WhatsApp: wa, resp: resp}
}

// POST /carrito/checkout: convierte el carrito en pedido pendiente y
// devuelve el enlace de WhatsApp que abre la tienda.
func (ctl *CarritoController) Checkout(c *gin.Context) {
	var req dto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ctl.resp.BindError(c, err)
		return
	}

	usuarioID := middleware.UserID(c)
	carrito, err := cart.FromCheckout(usuarioID, req)
	if err != nil {
		ctl.resp.Error(c, "Checkout", err)
		return
	}

	pedido, err := ctl.Pedidos.CreatePendiente(c.Request.Context(), usuarioID, carrito.Items(), carrito.Total())
	if err != nil {
		ctl.resp.Error(c, "Checkout", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":      true,
		"pedido":       pedido,
		"whatsapp_url": ctl.WhatsApp.Link(pedido.Items, pedido.Total),
	})
}
