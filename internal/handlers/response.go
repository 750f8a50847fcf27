package handlers

import (
	"net/http"
	"strconv"
	"time"

	"inventory-service/internal/apperror"
	"inventory-service/internal/middleware"
	"inventory-service/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// respondError traduce el tipo de error a status HTTP; los internos se loguean
func respondError(c *gin.Context, logger *zap.Logger, message string, err error) {
	status := apperror.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		logger.Error("❌ "+message,
			zap.Error(err),
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", c.GetString("request_id")))
	} else {
		logger.Debug("⚠️ "+message, zap.String("kind", apperror.Kind(err)), zap.Error(err))
	}

	c.JSON(status, gin.H{
		"success": false,
		"message": "❌ " + message,
		"kind":    apperror.Kind(err),
		"error":   err.Error(),
	})
}

// bindAndValidate parsea el body JSON y aplica los tags de validator
func bindAndValidate(c *gin.Context, v *validator.Validate, req interface{}) error {
	if err := c.ShouldBindJSON(req); err != nil {
		return apperror.InvalidArgument("formato de solicitud inválido: %v", err)
	}
	if err := v.Struct(req); err != nil {
		return apperror.InvalidArgument("datos de solicitud inválidos: %v", err)
	}
	return nil
}

// respondData envuelve una consulta exitosa
func respondData(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"data":      data,
		"timestamp": now(),
	})
}

func now() string {
	return time.Now().Format(time.RFC3339)
}

// queryInt64 lee un parámetro opcional; ausente retorna nil
func queryInt64(c *gin.Context, name string) (*int64, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return nil, apperror.InvalidArgument("%s debe ser un entero positivo", name)
	}
	return &v, nil
}

// queryBool lee un parámetro booleano opcional
func queryBool(c *gin.Context, name string) (bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, apperror.InvalidArgument("%s debe ser booleano", name)
	}
	return v, nil
}

// requireOperator obtiene el operador del contexto del request
func requireOperator(c *gin.Context) (models.Operator, error) {
	op, ok := middleware.OperatorFromContext(c)
	if !ok {
		return models.Operator{}, apperror.Unauthorized("operador no identificado")
	}
	return op, nil
}
