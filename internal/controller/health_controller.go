package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Pinger es cualquier dependencia que pueda comprobarse (base de datos, Redis).
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthController struct {
	checks map[string]Pinger
	logger logrus.FieldLogger
}

func NewHealthController(checks map[string]Pinger, logger logrus.FieldLogger) *HealthController {
	return &HealthController{checks: checks, logger: logger}
}

// GET /health
// Es público: el detalle del fallo solo va al log.
func (ctl *HealthController) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := gin.H{}
	for name, p := range ctl.checks {
		if err := p.Ping(ctx); err != nil {
			ctl.logger.WithError(err).WithField("dependencia", name).Warn("health check fallido")
			deps[name] = "error"
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	estado := "ok"
	if status != http.StatusOK {
		estado = "degradado"
	}
	c.JSON(status, gin.H{"status": estado, "dependencias": deps})
}
