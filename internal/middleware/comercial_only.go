// comercial_only.go
package middleware

import (
	"net/http"

	"github.com/Dend04/Pagina-web-Tienda/internal/service"
	"github.com/gin-gonic/gin"
)

// ComercialOnly va después de AuthMiddleware.
func ComercialOnly(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authService.IsComercial(CurrentUser(c)) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Acceso denegado"})
			return
		}
		c.Next()
	}
}
