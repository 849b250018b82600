package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Dend04/Pagina-web-Tienda/internal/model"
	"github.com/Dend04/Pagina-web-Tienda/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(auth *service.AuthService) *gin.Engine {
	r := gin.New()
	g := r.Group("/", AuthMiddleware(auth))
	g.GET("/yo", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": UserID(c), "rol": UserRol(c), "nombre": UserName(c)})
	})
	g.GET("/comercial", ComercialOnly(auth), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func do(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddlewareSinToken(t *testing.T) {
	r := newRouter(service.NewAuthService("secreto", time.Hour))
	w := do(r, "/yo", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"No autorizado"}`, w.Body.String())
}

func TestAuthMiddlewareTokenInvalido(t *testing.T) {
	r := newRouter(service.NewAuthService("secreto", time.Hour))
	otro, err := service.NewAuthService("otro", time.Hour).IssueToken(1, model.RolCliente, "ana")
	require.NoError(t, err)

	w := do(r, "/yo", otro)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareGuardaUsuario(t *testing.T) {
	auth := service.NewAuthService("secreto", time.Hour)
	token, err := auth.IssueToken(42, model.RolCliente, "ana")
	require.NoError(t, err)

	w := do(newRouter(auth), "/yo", token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":42,"rol":"cliente","nombre":"ana"}`, w.Body.String())
}

func TestComercialOnly(t *testing.T) {
	auth := service.NewAuthService("secreto", time.Hour)
	r := newRouter(auth)

	cliente, _ := auth.IssueToken(1, model.RolCliente, "ana")
	comercial, _ := auth.IssueToken(2, model.RolComercial, "luis")

	assert.Equal(t, http.StatusForbidden, do(r, "/comercial", cliente).Code)
	assert.Equal(t, http.StatusNoContent, do(r, "/comercial", comercial).Code)

	// sin AuthMiddleware no hay usuario en el contexto
	sueltas := gin.New()
	sueltas.GET("/comercial", ComercialOnly(auth), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	assert.Equal(t, http.StatusForbidden, do(sueltas, "/comercial", comercial).Code)
}

func TestRequestLogger(t *testing.T) {
	logger, hook := test.NewNullLogger()
	r := gin.New()
	r.Use(RequestLogger(logger))
	r.GET("/falla", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	do(r, "/falla", "")

	require.Len(t, hook.Entries, 1)
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	assert.Equal(t, "/falla", hook.LastEntry().Data["path"])
	assert.Equal(t, http.StatusInternalServerError, hook.LastEntry().Data["status"])
}

func TestRequestLoggerIncluyeUsuario(t *testing.T) {
	logger, hook := test.NewNullLogger()
	auth := service.NewAuthService("secreto", time.Hour)
	token, err := auth.IssueToken(42, model.RolCliente, "ana")
	require.NoError(t, err)

	r := gin.New()
	r.Use(RequestLogger(logger))
	r.GET("/yo", AuthMiddleware(auth), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	do(r, "/yo", token)

	require.Len(t, hook.Entries, 1)
	assert.Equal(t, int64(42), hook.LastEntry().Data["usuario_id"])
	assert.Equal(t, "ana", hook.LastEntry().Data["usuario"])
}
