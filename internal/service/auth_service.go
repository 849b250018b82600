package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/Dend04/Pagina-web-Tienda/internal/model"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// Claims del token que emite el módulo de login de la tienda.
type Claims struct {
	ID            int64  `json:"id"`
	Rol           string `json:"rol"`
	NombreUsuario string `json:"nombre_usuario,omitempty"`
	jwt.RegisteredClaims
}

type AuthUser struct {
	ID     int64
	Nombre string
	Rol    string
}

// Valida tokens HS256 firmados con el secreto compartido.
type AuthService struct {
	secret []byte
	ttl    time.Duration
}

func NewAuthService(secret string, ttl time.Duration) *AuthService {
	return &AuthService{secret: []byte(secret), ttl: ttl}
}

func (a *AuthService) IsComercial(user *AuthUser) bool {
	return user != nil && user.Rol == model.RolComercial
}

// IssueToken firma un token; lo usan las herramientas de desarrollo y los tests.
func (a *AuthService) IssueToken(id int64, rol, nombre string) (string, error) {
	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		ID:            id,
		Rol:           rol,
		NombreUsuario: nombre,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
	})
	return t.SignedString(a.secret)
}

func (a *AuthService) ValidateToken(token string) (*AuthUser, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de firma inesperado: %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("token inválido: %w", err)
	}
	if !parsed.Valid {
		return nil, errors.New("token inválido")
	}
	if claims.ID <= 0 {
		return nil, errors.New("token sin id de usuario")
	}

	return &AuthUser{ID: claims.ID, Nombre: claims.NombreUsuario, Rol: claims.Rol}, nil
}
