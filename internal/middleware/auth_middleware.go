// auth_middleware.go
package middleware

import (
	"net/http"
	"strings"

	"github.com/Dend04/Pagina-web-Tienda/internal/service"
	"github.com/gin-gonic/gin"
)

// CtxUser es la clave del contexto de gin con el *service.AuthUser del token
const CtxUser = "user"

// Middleware que valida el token y guarda la info del usuario en el contexto
func AuthMiddleware(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "No autorizado"})
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		user, err := authService.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token inválido"})
			return
		}

		c.Set(CtxUser, user)
		c.Next()
	}
}

// CurrentUser devuelve nil si la petición no pasó por AuthMiddleware.
func CurrentUser(c *gin.Context) *service.AuthUser {
	v, ok := c.Get(CtxUser)
	if !ok {
		return nil
	}
	user, _ := v.(*service.AuthUser)
	return user
}

func UserID(c *gin.Context) int64 {
	if user := CurrentUser(c); user != nil {
		return user.ID
	}
	return 0
}

func UserRol(c *gin.Context) string {
	if user := CurrentUser(c); user != nil {
		return user.Rol
	}
	return ""
}

func UserName(c *gin.Context) string {
	if user := CurrentUser(c); user != nil {
		return user.Nombre
	}
	return ""
}
