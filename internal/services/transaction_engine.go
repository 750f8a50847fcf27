package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"inventory-service/internal/apperror"
	"inventory-service/internal/events"
	"inventory-service/internal/models"
	"inventory-service/internal/repository"

	"go.uber.org/zap"
)

// TransactionEngine define las operaciones de movimientos de inventario
type TransactionEngine interface {
	// Operaciones básicas
	StockIn(ctx context.Context, req *models.StockInRequest) (*models.MovementResult, error)
	StockOut(ctx context.Context, req *models.StockOutRequest) (*models.MovementResult, error)
	Adjust(ctx context.Context, req *models.AdjustmentRequest) (*models.MovementResult, error)

	// Operaciones múltiples
	StockInBatch(ctx context.Context, req *models.StockInBatchRequest) (*models.BatchResponse, error)
	StockOutBatch(ctx context.Context, req *models.StockOutBatchRequest) (*models.BatchResponse, error)

	// Transferencias
	InitiateTransfer(ctx context.Context, req *models.TransferRequest) (*models.InventoryTransaction, error)
	CompleteTransfer(ctx context.Context, code, receivedRemarks string, op models.Operator) (*models.InventoryTransaction, error)
	CancelTransfer(ctx context.Context, code, reason string, op models.Operator) (*models.InventoryTransaction, error)
	ListStaleTransfers(ctx context.Context, olderThan time.Duration) ([]*models.InventoryTransaction, error)

	// Consultas
	GetTransaction(ctx context.Context, code string) (*models.InventoryTransaction, error)
	ListTransactions(ctx context.Context, filter models.TransactionFilter) ([]*models.InventoryTransaction, error)
	LedgerMetrics() models.LedgerMetrics
}

// EngineLimits límites de paginación para listados de transacciones
type EngineLimits struct {
	DefaultLimit int
	MaxLimit     int
}

// transactionEngine implementa TransactionEngine
type transactionEngine struct {
	store     repository.Store
	ledger    *Ledger
	publisher events.Publisher
	counters  *ledgerCounters
	limits    EngineLimits
	logger    *zap.Logger
}

// NewTransactionEngine crea una nueva instancia del motor
func NewTransactionEngine(store repository.Store, ledger *Ledger, publisher events.Publisher, limits EngineLimits, logger *zap.Logger) TransactionEngine {
	return &transactionEngine{
		store:     store,
		ledger:    ledger,
		publisher: publisher,
		counters:  newLedgerCounters(),
		limits:    limits,
		logger:    logger,
	}
}

// StockIn registra la recepción de mercadería en una sucursal
func (e *transactionEngine) StockIn(ctx context.Context, req *models.StockInRequest) (*models.MovementResult, error) {
	logger := e.logger.With(
		zap.String("operation", "stock_in"),
		zap.Int64("branch_id", req.BranchID),
		zap.Int64("product_id", req.ProductID),
		zap.Int("quantity", req.Quantity),
		zap.String("operator", req.Operator.ID),
	)

	result, err := e.stockIn(ctx, req)
	e.counters.record("stock_in", err)
	if err != nil {
		logCommandError(logger, "Entrada de stock rechazada", err)
		return nil, err
	}

	logger.Info("Entrada de stock registrada",
		zap.String("transaction_code", result.Transaction.TransactionCode),
		zap.Int("new_quantity", result.NewQuantity))
	e.publish(ctx, events.EventTransactionRecorded, result.Transaction)
	return result, nil
}

func (e *transactionEngine) stockIn(ctx context.Context, req *models.StockInRequest) (*models.MovementResult, error) {
	if req.Quantity <= 0 || req.Quantity > models.MaxQuantity {
		return nil, apperror.InvalidArgument("la cantidad debe estar entre 1 y %d", models.MaxQuantity)
	}
	if req.UnitCost != nil && req.UnitCost.IsNegative() {
		return nil, apperror.InvalidArgument("unit_cost no puede ser negativo")
	}
	if err := e.checkScope(ctx, req.Operator, req.BranchID, req.ProductID); err != nil {
		return nil, err
	}

	key := models.NewStockKey(req.BranchID, req.ProductID, req.VariationID)
	result := &models.MovementResult{}

	err := e.ledger.withRows(ctx, []models.StockKey{key}, func(ctx context.Context) error {
		level, current, err := e.ledger.read(ctx, key)
		if err != nil {
			return err
		}
		thresholds, err := e.ledger.thresholdsFor(level, req.MinStockLevel, req.MaxStockLevel)
		if err != nil {
			return err
		}

		next := current + req.Quantity
		now := e.ledger.now()
		tx := &models.InventoryTransaction{
			Type:                models.TransactionTypeStockIn,
			ProductID:           req.ProductID,
			VariationID:         req.VariationID,
			Quantity:            req.Quantity,
			DestinationBranchID: models.Int64Ptr(req.BranchID),
			ReferenceType:       req.ReferenceType,
			ReferenceNumber:     req.ReferenceNumber,
			Supplier:            req.Supplier,
			Reason:              req.Reason,
			Remarks:             req.Remarks,
			Status:              models.TransactionStatusCompleted,
			PreviousQuantity:    models.IntPtr(current),
			NewQuantity:         models.IntPtr(next),
			PerformedBy:         req.Operator.ID,
			CreatedAt:           now,
			CompletedAt:         &now,
		}
		if req.UnitCost != nil {
			unit := *req.UnitCost
			total := unit.Mul(decimalFromInt(req.Quantity))
			tx.UnitCost = &unit
			tx.TotalCost = &total
		}
		if err := e.appendTransaction(ctx, tx); err != nil {
			return err
		}
		if err := e.ledger.write(ctx, key, level, next, req.Quantity, thresholds); err != nil {
			return err
		}

		result.Transaction = tx
		result.PreviousQuantity = current
		result.NewQuantity = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// StockOut registra una salida (venta, merma, devolución a proveedor)
func (e *transactionEngine) StockOut(ctx context.Context, req *models.StockOutRequest) (*models.MovementResult, error) {
	logger := e.logger.With(
		zap.String("operation", "stock_out"),
		zap.Int64("branch_id", req.BranchID),
		zap.Int64("product_id", req.ProductID),
		zap.Int("quantity", req.Quantity),
		zap.String("operator", req.Operator.ID),
	)

	result, err := e.stockOut(ctx, req)
	e.counters.record("stock_out", err)
	if err != nil {
		logCommandError(logger, "Salida de stock rechazada", err)
		return nil, err
	}

	logger.Info("Salida de stock registrada",
		zap.String("transaction_code", result.Transaction.TransactionCode),
		zap.Int("new_quantity", result.NewQuantity))
	e.publish(ctx, events.EventTransactionRecorded, result.Transaction)
	return result, nil
}

func (e *transactionEngine) stockOut(ctx context.Context, req *models.StockOutRequest) (*models.MovementResult, error) {
	if req.Quantity <= 0 || req.Quantity > models.MaxQuantity {
		return nil, apperror.InvalidArgument("la cantidad debe estar entre 1 y %d", models.MaxQuantity)
	}
	if strings.TrimSpace(req.Reason) == "" {
		return nil, apperror.InvalidArgument("reason es obligatorio para salidas de stock")
	}
	if err := e.checkScope(ctx, req.Operator, req.BranchID, req.ProductID); err != nil {
		return nil, err
	}

	key := models.NewStockKey(req.BranchID, req.ProductID, req.VariationID)
	result := &models.MovementResult{}

	err := e.ledger.withRows(ctx, []models.StockKey{key}, func(ctx context.Context) error {
		level, current, err := e.ledger.read(ctx, key)
		if err != nil {
			return err
		}
		if err := checkExpected(key, current, req.ExpectedQuantity); err != nil {
			return err
		}
		if current < req.Quantity {
			return apperror.InsufficientStock("stock insuficiente en %s: disponible %d, solicitado %d", key, current, req.Quantity)
		}

		next := current - req.Quantity
		now := e.ledger.now()
		tx := &models.InventoryTransaction{
			Type:             models.TransactionTypeStockOut,
			ProductID:        req.ProductID,
			VariationID:      req.VariationID,
			Quantity:         req.Quantity,
			SourceBranchID:   models.Int64Ptr(req.BranchID),
			ReferenceType:    req.ReferenceType,
			ReferenceNumber:  req.ReferenceNumber,
			Reason:           req.Reason,
			Remarks:          req.Remarks,
			Status:           models.TransactionStatusCompleted,
			PreviousQuantity: models.IntPtr(current),
			NewQuantity:      models.IntPtr(next),
			PerformedBy:      req.Operator.ID,
			CreatedAt:        now,
			CompletedAt:      &now,
		}
		if err := e.appendTransaction(ctx, tx); err != nil {
			return err
		}
		if err := e.ledger.write(ctx, key, level, next, -req.Quantity, nil); err != nil {
			return err
		}

		result.Transaction = tx
		result.PreviousQuantity = current
		result.NewQuantity = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Adjust fija la cantidad contada físicamente. Un ajuste sin diferencia
// también se registra como confirmación de conteo.
func (e *transactionEngine) Adjust(ctx context.Context, req *models.AdjustmentRequest) (*models.MovementResult, error) {
	logger := e.logger.With(
		zap.String("operation", "adjustment"),
		zap.Int64("branch_id", req.BranchID),
		zap.Int64("product_id", req.ProductID),
		zap.String("operator", req.Operator.ID),
	)

	result, err := e.adjust(ctx, req)
	e.counters.record("adjustment", err)
	if err != nil {
		logCommandError(logger, "Ajuste rechazado", err)
		return nil, err
	}

	logger.Info("Ajuste registrado",
		zap.String("transaction_code", result.Transaction.TransactionCode),
		zap.Int("previous_quantity", result.PreviousQuantity),
		zap.Int("new_quantity", result.NewQuantity))
	e.publish(ctx, events.EventTransactionRecorded, result.Transaction)
	return result, nil
}

func (e *transactionEngine) adjust(ctx context.Context, req *models.AdjustmentRequest) (*models.MovementResult, error) {
	if req.NewQuantity == nil || *req.NewQuantity < 0 {
		return nil, apperror.InvalidArgument("new_quantity debe ser mayor o igual a 0")
	}
	if strings.TrimSpace(req.Reason) == "" {
		return nil, apperror.InvalidArgument("reason es obligatorio para ajustes")
	}
	if err := e.checkScope(ctx, req.Operator, req.BranchID, req.ProductID); err != nil {
		return nil, err
	}

	key := models.NewStockKey(req.BranchID, req.ProductID, req.VariationID)
	target := *req.NewQuantity
	result := &models.MovementResult{}

	err := e.ledger.withRows(ctx, []models.StockKey{key}, func(ctx context.Context) error {
		level, current, err := e.ledger.read(ctx, key)
		if err != nil {
			return err
		}
		if err := checkExpected(key, current, req.ExpectedQuantity); err != nil {
			return err
		}

		diff := target - current
		now := e.ledger.now()
		tx := &models.InventoryTransaction{
			Type:                models.TransactionTypeAdjustment,
			ProductID:           req.ProductID,
			VariationID:         req.VariationID,
			Quantity:            abs(diff),
			DestinationBranchID: models.Int64Ptr(req.BranchID),
			Reason:              req.Reason,
			Remarks:             req.Remarks,
			Status:              models.TransactionStatusCompleted,
			PreviousQuantity:    models.IntPtr(current),
			NewQuantity:         models.IntPtr(target),
			PerformedBy:         req.Operator.ID,
			CreatedAt:           now,
			CompletedAt:         &now,
		}
		if err := e.appendTransaction(ctx, tx); err != nil {
			return err
		}
		if err := e.ledger.write(ctx, key, level, target, diff, nil); err != nil {
			return err
		}

		result.Transaction = tx
		result.PreviousQuantity = current
		result.NewQuantity = target
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// StockInBatch procesa cada línea como una entrada independiente
func (e *transactionEngine) StockInBatch(ctx context.Context, req *models.StockInBatchRequest) (*models.BatchResponse, error) {
	logger := e.logger.With(
		zap.String("operation", "stock_in_batch"),
		zap.Int("lines", len(req.Items)),
		zap.Int64("branch_id", req.BranchID),
	)
	if len(req.Items) == 0 {
		return nil, apperror.InvalidArgument("items no puede estar vacío")
	}

	resp := newBatchResponse()
	for _, line := range req.Items {
		result, err := e.StockIn(ctx, &models.StockInRequest{
			BranchID:        req.BranchID,
			ProductID:       line.ProductID,
			VariationID:     line.VariationID,
			Quantity:        line.Quantity,
			UnitCost:        line.UnitCost,
			ReferenceType:   req.ReferenceType,
			ReferenceNumber: req.ReferenceNumber,
			Supplier:        req.Supplier,
			Reason:          req.Reason,
			Remarks:         req.Remarks,
			Operator:        req.Operator,
		})
		resp.add(line, result, err)
	}

	resp.finish("Entrada múltiple registrada correctamente")
	logger.Info("Entrada múltiple procesada",
		zap.Int("processed", resp.TotalProcessed),
		zap.Int("failed", len(resp.Errors)))
	return resp.BatchResponse, nil
}

// StockOutBatch procesa cada línea como una salida independiente
func (e *transactionEngine) StockOutBatch(ctx context.Context, req *models.StockOutBatchRequest) (*models.BatchResponse, error) {
	logger := e.logger.With(
		zap.String("operation", "stock_out_batch"),
		zap.Int("lines", len(req.Items)),
		zap.Int64("branch_id", req.BranchID),
	)
	if len(req.Items) == 0 {
		return nil, apperror.InvalidArgument("items no puede estar vacío")
	}

	resp := newBatchResponse()
	for _, line := range req.Items {
		result, err := e.StockOut(ctx, &models.StockOutRequest{
			BranchID:        req.BranchID,
			ProductID:       line.ProductID,
			VariationID:     line.VariationID,
			Quantity:        line.Quantity,
			Reason:          req.Reason,
			ReferenceType:   req.ReferenceType,
			ReferenceNumber: req.ReferenceNumber,
			Remarks:         req.Remarks,
			Operator:        req.Operator,
		})
		resp.add(line, result, err)
	}

	resp.finish("Salida múltiple registrada correctamente")
	logger.Info("Salida múltiple procesada",
		zap.Int("processed", resp.TotalProcessed),
		zap.Int("failed", len(resp.Errors)))
	return resp.BatchResponse, nil
}

// GetTransaction obtiene una transacción por código
func (e *transactionEngine) GetTransaction(ctx context.Context, code string) (*models.InventoryTransaction, error) {
	tx, err := e.store.GetTransactionByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, apperror.NotFound("transacción %s no encontrada", code)
	}
	return tx, nil
}

// ListTransactions lista transacciones, más recientes primero
func (e *transactionEngine) ListTransactions(ctx context.Context, filter models.TransactionFilter) ([]*models.InventoryTransaction, error) {
	if filter.Type != nil && !filter.Type.IsValid() {
		return nil, apperror.InvalidArgument("type inválido: %s", *filter.Type)
	}
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, apperror.InvalidArgument("status inválido: %s", *filter.Status)
	}
	if filter.Limit <= 0 {
		filter.Limit = e.limits.DefaultLimit
	}
	if e.limits.MaxLimit > 0 && filter.Limit > e.limits.MaxLimit {
		filter.Limit = e.limits.MaxLimit
	}
	return e.store.ListTransactions(ctx, filter)
}

// LedgerMetrics contadores de comandos para monitoring
func (e *transactionEngine) LedgerMetrics() models.LedgerMetrics {
	return e.counters.snapshot()
}

// checkScope valida operador, sucursal y producto antes de tomar locks
func (e *transactionEngine) checkScope(ctx context.Context, op models.Operator, branchID, productID int64) error {
	if !op.CanOperateOn(branchID) {
		return apperror.Forbidden("el operador %s no puede operar sobre la sucursal %d", op.ID, branchID)
	}
	if err := e.checkBranch(ctx, branchID); err != nil {
		return err
	}
	return e.checkProduct(ctx, productID)
}

func (e *transactionEngine) checkBranch(ctx context.Context, branchID int64) error {
	branch, err := e.store.GetBranch(ctx, branchID)
	if err != nil {
		return fmt.Errorf("error obteniendo sucursal: %w", err)
	}
	if branch == nil {
		return apperror.NotFound("sucursal %d no encontrada", branchID)
	}
	if !branch.IsActive {
		return apperror.InvalidArgument("la sucursal %s está inactiva", branch.Code)
	}
	return nil
}

func (e *transactionEngine) checkProduct(ctx context.Context, productID int64) error {
	product, err := e.store.GetProduct(ctx, productID)
	if err != nil {
		return fmt.Errorf("error consultando catálogo: %w", err)
	}
	if product == nil {
		return apperror.NotFound("producto %d no encontrado", productID)
	}
	return nil
}

// appendTransaction asigna el código correlativo e inserta la transacción
func (e *transactionEngine) appendTransaction(ctx context.Context, tx *models.InventoryTransaction) error {
	prefix := tx.Type.CodePrefix()
	day := tx.CreatedAt
	seq, err := e.store.NextSequence(ctx, prefix, day.Format("20060102"))
	if err != nil {
		return err
	}
	tx.TransactionCode = models.FormatTransactionCode(prefix, day, seq)
	return e.store.CreateTransaction(ctx, tx)
}

// publish emite el evento después del commit; un fallo no revierte el comando
func (e *transactionEngine) publish(ctx context.Context, eventType string, tx *models.InventoryTransaction) {
	if err := e.publisher.Publish(ctx, events.NewEvent(eventType, tx)); err != nil {
		e.logger.Warn("No se pudo publicar evento",
			zap.String("event_type", eventType),
			zap.String("transaction_code", tx.TransactionCode),
			zap.Error(err))
	}
}

func logCommandError(logger *zap.Logger, msg string, err error) {
	if apperror.Kind(err) == "internal" {
		logger.Error(msg, zap.Error(err))
		return
	}
	logger.Warn(msg, zap.String("kind", apperror.Kind(err)), zap.Error(err))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
