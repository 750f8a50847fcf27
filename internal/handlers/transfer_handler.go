package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"inventory-service/internal/apperror"
	"inventory-service/internal/models"
	"inventory-service/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// TransferHandler maneja el ciclo de vida de transferencias entre sucursales
type TransferHandler struct {
	engine       services.TransactionEngine
	validator    *validator.Validate
	defaultStale time.Duration
	logger       *zap.Logger
}

// NewTransferHandler defaultStale se usa cuando no viene older_than
func NewTransferHandler(engine services.TransactionEngine, defaultStale time.Duration, logger *zap.Logger) *TransferHandler {
	return &TransferHandler{
		engine:       engine,
		validator:    validator.New(),
		defaultStale: defaultStale,
		logger:       logger.With(zap.String("handler", "transfers")),
	}
}

// InitiateTransfer crea una transferencia inmediata o diferida
func (h *TransferHandler) InitiateTransfer(c *gin.Context) {
	var req models.TransferRequest
	if err := bindAndValidate(c, h.validator, &req); err != nil {
		respondError(c, h.logger, "Datos de transferencia inválidos", err)
		return
	}
	op, err := requireOperator(c)
	if err != nil {
		respondError(c, h.logger, "Operador no identificado", err)
		return
	}
	req.Operator = op

	tx, err := h.engine.InitiateTransfer(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, "Error iniciando transferencia", err)
		return
	}

	h.logger.Info("✅ Transferencia iniciada",
		zap.String("transaction_code", tx.TransactionCode),
		zap.String("status", string(tx.Status)),
		zap.Int64("source_branch_id", req.SourceBranchID),
		zap.Int64("destination_branch_id", req.DestinationBranchID))

	c.JSON(http.StatusCreated, models.TransferResponse{
		Success:             true,
		Message:             "✅ Transferencia registrada correctamente",
		TransactionCode:     tx.TransactionCode,
		Status:              tx.Status,
		QuantityTransferred: tx.Quantity,
		Timestamp:           now(),
	})
}

// CompleteTransfer recepción en destino; el código viene en la ruta o en el body
func (h *TransferHandler) CompleteTransfer(c *gin.Context) {
	var req models.CompleteTransferRequest
	if err := bindOptional(c, h.validator, &req); err != nil {
		respondError(c, h.logger, "Datos de recepción inválidos", err)
		return
	}
	code, err := transferCode(c, req.TransactionCode)
	if err != nil {
		respondError(c, h.logger, "Código de transferencia inválido", err)
		return
	}
	op, err := requireOperator(c)
	if err != nil {
		respondError(c, h.logger, "Operador no identificado", err)
		return
	}

	tx, err := h.engine.CompleteTransfer(c.Request.Context(), code, req.ReceivedRemarks, op)
	if err != nil {
		respondError(c, h.logger, "Error completando transferencia", err)
		return
	}

	h.logger.Info("✅ Transferencia completada", zap.String("transaction_code", code))
	c.JSON(http.StatusOK, models.TransferStatusResponse{
		Success:         true,
		Message:         "✅ Transferencia recibida correctamente",
		TransactionCode: tx.TransactionCode,
		Status:          tx.Status,
		Timestamp:       now(),
	})
}

// CancelTransfer cancela una transferencia en tránsito
func (h *TransferHandler) CancelTransfer(c *gin.Context) {
	var req models.CancelTransferRequest
	if err := bindOptional(c, h.validator, &req); err != nil {
		respondError(c, h.logger, "Datos de cancelación inválidos", err)
		return
	}
	code, err := transferCode(c, req.TransactionCode)
	if err != nil {
		respondError(c, h.logger, "Código de transferencia inválido", err)
		return
	}
	op, err := requireOperator(c)
	if err != nil {
		respondError(c, h.logger, "Operador no identificado", err)
		return
	}

	tx, err := h.engine.CancelTransfer(c.Request.Context(), code, req.Reason, op)
	if err != nil {
		respondError(c, h.logger, "Error cancelando transferencia", err)
		return
	}

	h.logger.Info("✅ Transferencia cancelada", zap.String("transaction_code", code))
	c.JSON(http.StatusOK, models.TransferStatusResponse{
		Success:         true,
		Message:         "✅ Transferencia cancelada correctamente",
		TransactionCode: tx.TransactionCode,
		Status:          tx.Status,
		Timestamp:       now(),
	})
}

// GetStaleTransfers lista transferencias en tránsito más antiguas que older_than
func (h *TransferHandler) GetStaleTransfers(c *gin.Context) {
	olderThan := h.defaultStale
	if raw := c.Query("older_than"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			respondError(c, h.logger, "Filtro inválido",
				apperror.InvalidArgument("older_than debe ser una duración válida (ej. 72h)"))
			return
		}
		olderThan = d
	}

	stale, err := h.engine.ListStaleTransfers(c.Request.Context(), olderThan)
	if err != nil {
		respondError(c, h.logger, "Error obteniendo transferencias pendientes", err)
		return
	}
	respondData(c, stale)
}

// bindOptional como bindAndValidate pero acepta body vacío
func bindOptional(c *gin.Context, v *validator.Validate, req interface{}) error {
	if c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(req); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apperror.InvalidArgument("formato de solicitud inválido: %v", err)
	}
	if err := v.Struct(req); err != nil {
		return apperror.InvalidArgument("datos de solicitud inválidos: %v", err)
	}
	return nil
}

// transferCode la ruta manda; si el body trae otro código es un error
func transferCode(c *gin.Context, bodyCode string) (string, error) {
	code := c.Param("code")
	switch {
	case code == "" && bodyCode == "":
		return "", apperror.InvalidArgument("transaction_code es obligatorio")
	case code == "":
		return bodyCode, nil
	case bodyCode != "" && bodyCode != code:
		return "", apperror.InvalidArgument("el código del body (%s) no coincide con la ruta (%s)", bodyCode, code)
	default:
		return code, nil
	}
}
