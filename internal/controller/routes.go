package controller

import (
	"github.com/Dend04/Pagina-web-Tienda/internal/middleware"
	"github.com/Dend04/Pagina-web-Tienda/internal/service"
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Pedidos   *PedidoController
	Historial *HistorialController
	Carrito   *CarritoController
	Health    *HealthController
}

func RegisterRoutes(r *gin.Engine, auth *service.AuthService, h Handlers) {
	// Rutas públicas
	r.GET("/health", h.Health.Health)

	// Rutas protegidas (requieren token)
	api := r.Group("/")
	api.Use(middleware.AuthMiddleware(auth))

	api.POST("/pedidos-pendientes", h.Pedidos.Create)
	api.GET("/pedidos-pendientes/count", h.Pedidos.Count)
	api.GET("/pedidos-pendientes/actual", h.Pedidos.Actual)

	api.POST("/historial", h.Historial.Create)
	api.GET("/historial/mine", h.Historial.Mine)
	api.GET("/historial/ultimo", h.Historial.Ultimo)

	api.POST("/carrito/checkout", h.Carrito.Checkout)

	// Rutas del comercial
	comercial := api.Group("/")
	comercial.Use(middleware.ComercialOnly(auth))
	comercial.GET("/pedidos-pendientes", h.Pedidos.List)
	comercial.PATCH("/pedidos-pendientes/:id", h.Pedidos.Resolver)
	comercial.GET("/historial", h.Historial.GetAll)
	comercial.PATCH("/historial/:id", h.Historial.Advance)
}
