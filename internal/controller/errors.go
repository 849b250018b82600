package controller

import (
	"errors"
	"net/http"

	"github.com/Dend04/Pagina-web-Tienda/internal/cart"
	"github.com/Dend04/Pagina-web-Tienda/internal/config"
	"github.com/Dend04/Pagina-web-Tienda/internal/service"
	"github.com/Dend04/Pagina-web-Tienda/internal/validation"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Responder traduce los errores de negocio a status HTTP. Los errores
// internos se registran y solo se detallan en desarrollo.
type Responder struct {
	logger logrus.FieldLogger
	dev    bool
}

func NewResponder(logger logrus.FieldLogger, dev bool) Responder {
	return Responder{logger: logger, dev: dev}
}

var statusByError = []struct {
	err    error
	status int
}{
	{service.ErrUnauthenticated, http.StatusUnauthorized},
	{service.ErrForbidden, http.StatusForbidden},
	{service.ErrInvalidInput, http.StatusBadRequest},
	{service.ErrPedidoDuplicado, http.StatusBadRequest},
	{service.ErrNotFound, http.StatusNotFound},
	{service.ErrHistorialNotFound, http.StatusNotFound},
	{service.ErrAlreadyProcessed, http.StatusBadRequest},
	{service.ErrExpired, http.StatusGone},
	{service.ErrAccionInvalida, http.StatusBadRequest},
	{service.ErrInvalidTransition, http.StatusBadRequest},
	{service.ErrEnProceso, http.StatusConflict},
	{cart.ErrCantidadInvalida, http.StatusBadRequest},
	{cart.ErrPrecioInvalido, http.StatusBadRequest},
	{cart.ErrCarritoVacio, http.StatusBadRequest},
}

func (r Responder) Error(c *gin.Context, funcName string, err error) {
	for _, e := range statusByError {
		if errors.Is(err, e.err) {
			c.JSON(e.status, gin.H{"error": e.err.Error()})
			return
		}
	}

	config.LogError(r.logger, "controller", funcName, c.FullPath(), c.Params, err)

	body := gin.H{"error": "Error interno del servidor"}
	if r.dev {
		body["details"] = err.Error()
	}
	c.JSON(http.StatusInternalServerError, body)
}

// BindError responde 400 cuando el body no cumple las reglas de binding.
func (r Responder) BindError(c *gin.Context, err error) {
	body := gin.H{"error": service.ErrInvalidInput.Error()}
	if details := validation.Details(err); details != nil {
		body["details"] = details
	} else if r.dev {
		body["details"] = err.Error()
	}
	c.JSON(http.StatusBadRequest, body)
}
