package handlers

import (
	"strconv"
	"time"

	"inventory-service/internal/apperror"
	"inventory-service/internal/models"
	"inventory-service/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TransactionHandler consultas sobre el log de transacciones
type TransactionHandler struct {
	engine services.TransactionEngine
	logger *zap.Logger
}

func NewTransactionHandler(engine services.TransactionEngine, logger *zap.Logger) *TransactionHandler {
	return &TransactionHandler{
		engine: engine,
		logger: logger.With(zap.String("handler", "transactions")),
	}
}

// ListTransactions filtros: limit, type, status, branch_id, product_id, before (RFC3339)
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondError(c, h.logger, "Filtro inválido", err)
		return
	}

	txs, err := h.engine.ListTransactions(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, "Error obteniendo transacciones", err)
		return
	}

	h.logger.Debug("Transacciones obtenidas", zap.Int("count", len(txs)))
	respondData(c, txs)
}

// GetTransaction obtiene una transacción por su código
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	tx, err := h.engine.GetTransaction(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, h.logger, "Error obteniendo transacción", err)
		return
	}
	respondData(c, tx)
}

func parseTransactionFilter(c *gin.Context) (models.TransactionFilter, error) {
	var filter models.TransactionFilter
	var err error

	if raw := c.Query("limit"); raw != "" {
		limit, convErr := strconv.Atoi(raw)
		if convErr != nil || limit <= 0 {
			return filter, apperror.InvalidArgument("limit debe ser un entero positivo")
		}
		filter.Limit = limit
	}
	if raw := c.Query("type"); raw != "" {
		t := models.TransactionType(raw)
		filter.Type = &t
	}
	if raw := c.Query("status"); raw != "" {
		s := models.TransactionStatus(raw)
		filter.Status = &s
	}
	if filter.BranchID, err = queryInt64(c, "branch_id"); err != nil {
		return filter, err
	}
	if filter.ProductID, err = queryInt64(c, "product_id"); err != nil {
		return filter, err
	}
	if raw := c.Query("before"); raw != "" {
		before, parseErr := time.Parse(time.RFC3339, raw)
		if parseErr != nil {
			return filter, apperror.InvalidArgument("before debe estar en formato RFC3339")
		}
		filter.CreatedBefore = &before
	}
	return filter, nil
}
