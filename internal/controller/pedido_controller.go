package controller

import (
	"net/http"
	"strconv"

	"github.com/Dend04/Pagina-web-Tienda/internal/dto"
	"github.com/Dend04/Pagina-web-Tienda/internal/middleware"
	"github.com/Dend04/Pagina-web-Tienda/internal/model"
	"github.com/Dend04/Pagina-web-Tienda/internal/service"
	"github.com/gin-gonic/gin"
)

type PedidoController struct {
	Service *service.PedidoService
	resp    Responder
}

func NewPedidoController(s *service.PedidoService, resp Responder) *PedidoController {
	return &PedidoController{Service: s, resp: resp}
}

// POST /pedidos-pendientes
func (ctl *PedidoController) Create(c *gin.Context) {
	var req dto.CreatePedidoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ctl.resp.BindError(c, err)
		return
	}

	pedido, err := ctl.Service.CreatePendiente(
		c.Request.Context(),
		middleware.UserID(c),
		dto.ToItems(req.Items),
		*req.Total,
	)
	if err != nil {
		ctl.resp.Error(c, "Create", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "pedido": pedido})
}

// GET /pedidos-pendientes (solo comercial)
func (ctl *PedidoController) List(c *gin.Context) {
	pedidos, err := ctl.Service.ListPendientes(c.Request.Context(), middleware.UserRol(c))
	if err != nil {
		ctl.resp.Error(c, "List", err)
		return
	}
	if pedidos == nil {
		pedidos = []*model.PedidoPendiente{}
	}
	c.JSON(http.StatusOK, gin.H{"pedidos": pedidos})
}

// GET /pedidos-pendientes/count (0 si no es comercial)
func (ctl *PedidoController) Count(c *gin.Context) {
	n, err := ctl.Service.CountPendientes(c.Request.Context(), middleware.UserRol(c))
	if err != nil {
		ctl.resp.Error(c, "Count", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}

// GET /pedidos-pendientes/actual
func (ctl *PedidoController) Actual(c *gin.Context) {
	pedido, err := ctl.Service.PendienteActual(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		ctl.resp.Error(c, "Actual", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pedido": pedido})
}

// PATCH /pedidos-pendientes/:id
func (ctl *PedidoController) Resolver(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return
	}

	var req dto.ResolverPedidoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": service.ErrAccionInvalida.Error()})
		return
	}

	msg, err := ctl.Service.Resolver(c.Request.Context(), id, middleware.UserRol(c), service.Accion(req.Accion))
	if err != nil {
		ctl.resp.Error(c, "Resolver", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": msg})
}
