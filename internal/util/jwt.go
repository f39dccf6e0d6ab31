package util

import (
	"errors"
	"time"

	"pracas_backend/internal/access"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const principalKey = "principal"

type Claims struct {
	UserID uint          `json:"user_id"`
	Email  string        `json:"email"`
	Roles  []access.Role `json:"roles"`
	jwt.RegisteredClaims
}

func GenerateJWT(p access.Principal, secret string, expiration time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: p.UserID,
		Email:  p.Email,
		Roles:  p.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseJWT(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

func (c *Claims) Principal() access.Principal {
	return access.Principal{UserID: c.UserID, Email: c.Email, Roles: c.Roles}
}

func SetPrincipal(c *gin.Context, p access.Principal) {
	c.Set(principalKey, p)
}

// GetPrincipal returns the zero Principal for anonymous requests.
func GetPrincipal(c *gin.Context) access.Principal {
	v, ok := c.Get(principalKey)
	if !ok {
		return access.Principal{}
	}
	p, _ := v.(access.Principal)
	return p
}
