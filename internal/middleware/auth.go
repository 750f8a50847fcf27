package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"inventory-service/internal/apperror"
	"inventory-service/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const operatorKey = "operator"

// OperatorClaims claims que emite el servicio de identidad
type OperatorClaims struct {
	BranchID *int64 `json:"branch_id,omitempty"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// IdentityMiddleware resuelve el operador desde el bearer token (HS256).
// Con required=false, un request sin token opera como SystemOperator.
func IdentityMiddleware(secret string, required bool, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			if !required {
				c.Set(operatorKey, models.SystemOperator)
				c.Next()
				return
			}
			abortUnauthorized(c, apperror.Unauthorized("falta el header Authorization"))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			abortUnauthorized(c, apperror.Unauthorized("el formato debe ser 'Bearer <token>'"))
			return
		}

		op, err := ParseOperatorToken(parts[1], secret)
		if err != nil {
			logger.Debug("Token rechazado", zap.Error(err), zap.String("path", c.Request.URL.Path))
			abortUnauthorized(c, err)
			return
		}

		c.Set(operatorKey, op)
		c.Next()
	}
}

// ParseOperatorToken valida firma y expiración y arma el Operator
func ParseOperatorToken(tokenStr, secret string) (models.Operator, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &OperatorClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de firma inesperado: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return models.Operator{}, apperror.Unauthorized("token inválido o expirado")
	}

	claims, ok := token.Claims.(*OperatorClaims)
	if !ok || claims.Subject == "" {
		return models.Operator{}, apperror.Unauthorized("el token no identifica al operador")
	}

	return models.Operator{
		ID:       claims.Subject,
		BranchID: claims.BranchID,
		Role:     claims.Role,
	}, nil
}

// OperatorFromContext retorna el operador resuelto por IdentityMiddleware
func OperatorFromContext(c *gin.Context) (models.Operator, bool) {
	v, ok := c.Get(operatorKey)
	if !ok {
		return models.Operator{}, false
	}
	op, ok := v.(models.Operator)
	return op, ok
}

func abortUnauthorized(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"message": "❌ No autorizado",
		"kind":    apperror.Kind(err),
		"error":   err.Error(),
	})
}
