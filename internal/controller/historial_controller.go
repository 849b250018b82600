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

type HistorialController struct {
	Service *service.HistorialService
	resp    Responder
}

func NewHistorialController(s *service.HistorialService, resp Responder) *HistorialController {
	return &HistorialController{Service: s, resp: resp}
}

// GET /historial (solo comercial), con nombre y correo del cliente
func (ctl *HistorialController) GetAll(c *gin.Context) {
	out, err := ctl.Service.GetAll(c.Request.Context(), middleware.UserRol(c))
	if err != nil {
		ctl.resp.Error(c, "GetAll", err)
		return
	}
	c.JSON(http.StatusOK, nonNil(out))
}

// POST /historial
func (ctl *HistorialController) Create(c *gin.Context) {
	var req dto.CreatePedidoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ctl.resp.BindError(c, err)
		return
	}

	h, err := ctl.Service.Create(c.Request.Context(), middleware.UserID(c), dto.ToItems(req.Items), *req.Total)
	if err != nil {
		ctl.resp.Error(c, "CreateHistorial", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "pedido": h})
}

// GET /historial/mine
func (ctl *HistorialController) Mine(c *gin.Context) {
	out, err := ctl.Service.GetByUsuario(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		ctl.resp.Error(c, "Mine", err)
		return
	}
	c.JSON(http.StatusOK, nonNil(out))
}

// GET /historial/ultimo
func (ctl *HistorialController) Ultimo(c *gin.Context) {
	h, err := ctl.Service.UltimoPendiente(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		ctl.resp.Error(c, "Ultimo", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pedido": h})
}

// PATCH /historial/:id (solo comercial)
func (ctl *HistorialController) Advance(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return
	}

	var req dto.UpdateHistorialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ctl.resp.BindError(c, err)
		return
	}

	if err := ctl.Service.AdvanceEstado(c.Request.Context(), id, req.Estado); err != nil {
		ctl.resp.Error(c, "Advance", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Estado actualizado"})
}

func nonNil(in []*model.HistorialCompra) []*model.HistorialCompra {
	if in == nil {
		return []*model.HistorialCompra{}
	}
	return in
}
