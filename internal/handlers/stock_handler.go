package handlers

import (
	"net/http"
	"time"

	"inventory-service/internal/apperror"
	"inventory-service/internal/models"
	"inventory-service/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// StockHandler maneja entradas, salidas, ajustes y consultas de stock
type StockHandler struct {
	engine    services.TransactionEngine
	ledger    services.StockLedger
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStockHandler crea una nueva instancia del handler
func NewStockHandler(engine services.TransactionEngine, ledger services.StockLedger, logger *zap.Logger) *StockHandler {
	return &StockHandler{
		engine:    engine,
		ledger:    ledger,
		validator: validator.New(),
		logger:    logger,
	}
}

// logDebug logs solo en modo debug
func (h *StockHandler) logDebug(msg string, fields ...zap.Field) {
	h.logger.Debug("🔍 [DEBUG] "+msg, fields...)
}

// logSuccess logs de éxito en todos los modos
func (h *StockHandler) logSuccess(msg string, fields ...zap.Field) {
	h.logger.Info("✅ "+msg, fields...)
}

// StockIn registra una entrada de stock en una sucursal
func (h *StockHandler) StockIn(c *gin.Context) {
	start := time.Now()

	var req models.StockInRequest
	if err := bindAndValidate(c, h.validator, &req); err != nil {
		respondError(c, h.logger, "Datos de entrada inválidos", err)
		return
	}
	op, err := requireOperator(c)
	if err != nil {
		respondError(c, h.logger, "Operador no identificado", err)
		return
	}
	req.Operator = op

	h.logDebug("Entrada de stock recibida",
		zap.Int64("branch_id", req.BranchID),
		zap.Int64("product_id", req.ProductID),
		zap.Int("quantity", req.Quantity))

	result, err := h.engine.StockIn(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, "Error registrando entrada de stock", err)
		return
	}

	h.logSuccess("Entrada de stock registrada",
		zap.String("transaction_code", result.Transaction.TransactionCode),
		zap.Int("new_quantity", result.NewQuantity),
		zap.Duration("latency", time.Since(start)))

	c.JSON(http.StatusCreated, models.StockInResponse{
		Success:         true,
		Message:         "✅ Entrada de stock registrada correctamente",
		TransactionCode: result.Transaction.TransactionCode,
		QuantityAdded:   req.Quantity,
		NewQuantity:     result.NewQuantity,
		Timestamp:       now(),
	})
}

// StockOut registra una salida de stock
func (h *StockHandler) StockOut(c *gin.Context) {
	start := time.Now()

	var req models.StockOutRequest
	if err := bindAndValidate(c, h.validator, &req); err != nil {
		respondError(c, h.logger, "Datos de salida inválidos", err)
		return
	}
	op, err := requireOperator(c)
	if err != nil {
		respondError(c, h.logger, "Operador no identificado", err)
		return
	}
	req.Operator = op

	result, err := h.engine.StockOut(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, "Error registrando salida de stock", err)
		return
	}

	h.logSuccess("Salida de stock registrada",
		zap.String("transaction_code", result.Transaction.TransactionCode),
		zap.Int("new_quantity", result.NewQuantity),
		zap.Duration("latency", time.Since(start)))

	c.JSON(http.StatusCreated, models.StockOutResponse{
		Success:         true,
		Message:         "✅ Salida de stock registrada correctamente",
		TransactionCode: result.Transaction.TransactionCode,
		QuantityRemoved: req.Quantity,
		NewQuantity:     result.NewQuantity,
		Timestamp:       now(),
	})
}

// StockInBatch entrada múltiple; cada línea se confirma por separado
func (h *StockHandler) StockInBatch(c *gin.Context) {
	var req models.StockInBatchRequest
	if err := bindAndValidate(c, h.validator, &req); err != nil {
		respondError(c, h.logger, "Datos de entrada múltiple inválidos", err)
		return
	}
	op, err := requireOperator(c)
	if err != nil {
		respondError(c, h.logger, "Operador no identificado", err)
		return
	}
	req.Operator = op

	response, err := h.engine.StockInBatch(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, "Error procesando entrada múltiple", err)
		return
	}
	h.respondBatch(c, response)
}

// StockOutBatch salida múltiple; cada línea se confirma por separado
func (h *StockHandler) StockOutBatch(c *gin.Context) {
	var req models.StockOutBatchRequest
	if err := bindAndValidate(c, h.validator, &req); err != nil {
		respondError(c, h.logger, "Datos de salida múltiple inválidos", err)
		return
	}
	op, err := requireOperator(c)
	if err != nil {
		respondError(c, h.logger, "Operador no identificado", err)
		return
	}
	req.Operator = op

	response, err := h.engine.StockOutBatch(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, "Error procesando salida múltiple", err)
		return
	}
	h.respondBatch(c, response)
}

// respondBatch 200 si al menos una línea quedó registrada; si ninguna,
// el status del primer error y success=false
func (h *StockHandler) respondBatch(c *gin.Context, response *models.BatchResponse) {
	for i, lineErr := range response.Errors {
		h.logger.Warn("⚠️ Línea rechazada",
			zap.Int("index", i),
			zap.Int64("product_id", lineErr.ProductID),
			zap.String("kind", lineErr.Kind),
			zap.String("error", lineErr.Error))
	}

	status := http.StatusOK
	if !response.Success && len(response.Errors) > 0 {
		status = apperror.StatusForKind(response.Errors[0].Kind)
	}
	c.JSON(status, response)
}

// Adjust fija la cantidad de una fila a un conteo físico
func (h *StockHandler) Adjust(c *gin.Context) {
	var req models.AdjustmentRequest
	if err := bindAndValidate(c, h.validator, &req); err != nil {
		respondError(c, h.logger, "Datos de ajuste inválidos", err)
		return
	}
	op, err := requireOperator(c)
	if err != nil {
		respondError(c, h.logger, "Operador no identificado", err)
		return
	}
	req.Operator = op

	result, err := h.engine.Adjust(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, "Error registrando ajuste", err)
		return
	}

	h.logSuccess("Ajuste registrado",
		zap.String("transaction_code", result.Transaction.TransactionCode),
		zap.Int("previous_quantity", result.PreviousQuantity),
		zap.Int("new_quantity", result.NewQuantity))

	c.JSON(http.StatusCreated, models.AdjustmentResponse{
		Success:          true,
		Message:          "✅ Ajuste registrado correctamente",
		TransactionCode:  result.Transaction.TransactionCode,
		PreviousQuantity: result.PreviousQuantity,
		NewQuantity:      result.NewQuantity,
		Difference:       result.NewQuantity - result.PreviousQuantity,
		Timestamp:        now(),
	})
}

// GetStockLevels lista filas con filtros opcionales branch_id, product_id y status
func (h *StockHandler) GetStockLevels(c *gin.Context) {
	var filter models.StockLevelFilter
	var err error

	if filter.BranchID, err = queryInt64(c, "branch_id"); err != nil {
		respondError(c, h.logger, "Filtro inválido", err)
		return
	}
	if filter.ProductID, err = queryInt64(c, "product_id"); err != nil {
		respondError(c, h.logger, "Filtro inválido", err)
		return
	}
	if raw := c.Query("status"); raw != "" {
		status := models.StockStatus(raw)
		filter.Status = &status
	}

	levels, err := h.ledger.ListStockLevels(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, "Error obteniendo niveles de stock", err)
		return
	}

	h.logDebug("Niveles de stock obtenidos", zap.Int("rows", len(levels)))
	respondData(c, levels)
}

// SetThresholds actualiza min/max de una fila
func (h *StockHandler) SetThresholds(c *gin.Context) {
	var req models.ThresholdsRequest
	if err := bindAndValidate(c, h.validator, &req); err != nil {
		respondError(c, h.logger, "Datos de umbrales inválidos", err)
		return
	}
	op, err := requireOperator(c)
	if err != nil {
		respondError(c, h.logger, "Operador no identificado", err)
		return
	}
	if !op.CanOperateOn(req.BranchID) {
		respondError(c, h.logger, "Operación no permitida",
			apperror.Forbidden("el operador %s no puede modificar la sucursal %d", op.ID, req.BranchID))
		return
	}

	key := models.NewStockKey(req.BranchID, req.ProductID, req.VariationID)
	level, err := h.ledger.SetThresholds(c.Request.Context(), key, models.Thresholds{
		Min: *req.MinStockLevel,
		Max: *req.MaxStockLevel,
	})
	if err != nil {
		respondError(c, h.logger, "Error actualizando umbrales", err)
		return
	}

	h.logSuccess("Umbrales actualizados",
		zap.String("key", key.String()),
		zap.Int("min", level.MinStockLevel),
		zap.Int("max", level.MaxStockLevel))
	respondData(c, level)
}
