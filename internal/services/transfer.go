package services

import (
	"context"
	"time"

	"inventory-service/internal/apperror"
	"inventory-service/internal/events"
	"inventory-service/internal/models"

	"go.uber.org/zap"
)

// InitiateTransfer descuenta el origen. En modo immediate también acredita el
// destino y la transferencia nace completed; en deferred queda in_transit.
func (e *transactionEngine) InitiateTransfer(ctx context.Context, req *models.TransferRequest) (*models.InventoryTransaction, error) {
	mode := models.TransferModeFor(req.Immediate)
	logger := e.logger.With(
		zap.String("operation", "transfer"),
		zap.Int64("source_branch_id", req.SourceBranchID),
		zap.Int64("destination_branch_id", req.DestinationBranchID),
		zap.Int64("product_id", req.ProductID),
		zap.Int("quantity", req.Quantity),
		zap.String("mode", string(mode)),
		zap.String("operator", req.Operator.ID),
	)

	tx, err := e.initiateTransfer(ctx, req, mode)
	e.counters.record("transfer", err)
	if err != nil {
		logCommandError(logger, "Transferencia rechazada", err)
		return nil, err
	}

	logger.Info("Transferencia registrada",
		zap.String("transaction_code", tx.TransactionCode),
		zap.String("status", string(tx.Status)))
	e.publish(ctx, events.EventTransactionRecorded, tx)
	return tx, nil
}

func (e *transactionEngine) initiateTransfer(ctx context.Context, req *models.TransferRequest, mode models.TransferMode) (*models.InventoryTransaction, error) {
	if req.Quantity <= 0 || req.Quantity > models.MaxQuantity {
		return nil, apperror.InvalidArgument("la cantidad debe estar entre 1 y %d", models.MaxQuantity)
	}
	if req.SourceBranchID == req.DestinationBranchID {
		return nil, apperror.InvalidArgument("origen y destino deben ser sucursales distintas")
	}
	if err := e.checkScope(ctx, req.Operator, req.SourceBranchID, req.ProductID); err != nil {
		return nil, err
	}
	if err := e.checkBranch(ctx, req.DestinationBranchID); err != nil {
		return nil, err
	}

	srcKey := models.NewStockKey(req.SourceBranchID, req.ProductID, req.VariationID)
	dstKey := models.NewStockKey(req.DestinationBranchID, req.ProductID, req.VariationID)
	var tx *models.InventoryTransaction

	err := e.ledger.withRows(ctx, []models.StockKey{srcKey, dstKey}, func(ctx context.Context) error {
		srcLevel, srcQty, err := e.ledger.read(ctx, srcKey)
		if err != nil {
			return err
		}
		if srcQty < req.Quantity {
			return apperror.InsufficientStock("stock insuficiente en %s: disponible %d, solicitado %d", srcKey, srcQty, req.Quantity)
		}

		now := e.ledger.now()
		tx = &models.InventoryTransaction{
			Type:                models.TransactionTypeTransfer,
			ProductID:           req.ProductID,
			VariationID:         req.VariationID,
			Quantity:            req.Quantity,
			SourceBranchID:      models.Int64Ptr(req.SourceBranchID),
			DestinationBranchID: models.Int64Ptr(req.DestinationBranchID),
			ReferenceNumber:     req.ReferenceNumber,
			Reason:              req.Reason,
			Remarks:             req.Remarks,
			Status:              mode.InitialStatus(),
			TransferMode:        mode,
			PerformedBy:         req.Operator.ID,
			CreatedAt:           now,
		}
		if mode == models.TransferModeImmediate {
			tx.CompletedAt = &now
		}
		if err := e.appendTransaction(ctx, tx); err != nil {
			return err
		}
		if err := e.ledger.write(ctx, srcKey, srcLevel, srcQty-req.Quantity, -req.Quantity, nil); err != nil {
			return err
		}
		if mode == models.TransferModeImmediate {
			return e.credit(ctx, dstKey, req.Quantity)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// CompleteTransfer acredita el destino de una transferencia in_transit.
// El cambio de estado es check-and-set: dos recepciones simultáneas acreditan una sola vez.
func (e *transactionEngine) CompleteTransfer(ctx context.Context, code, receivedRemarks string, op models.Operator) (*models.InventoryTransaction, error) {
	logger := e.logger.With(
		zap.String("operation", "complete_transfer"),
		zap.String("transaction_code", code),
		zap.String("operator", op.ID),
	)

	tx, err := e.resolveTransfer(ctx, code, models.TransactionStatusCompleted, receivedRemarks, op)
	e.counters.record("complete_transfer", err)
	if err != nil {
		logCommandError(logger, "Recepción de transferencia rechazada", err)
		return nil, err
	}

	logger.Info("Transferencia completada", zap.Int("quantity", tx.Quantity))
	e.publish(ctx, events.EventTransferCompleted, tx)
	return tx, nil
}

// CancelTransfer anula una transferencia in_transit y devuelve la cantidad al origen
func (e *transactionEngine) CancelTransfer(ctx context.Context, code, reason string, op models.Operator) (*models.InventoryTransaction, error) {
	logger := e.logger.With(
		zap.String("operation", "cancel_transfer"),
		zap.String("transaction_code", code),
		zap.String("operator", op.ID),
	)

	tx, err := e.resolveTransfer(ctx, code, models.TransactionStatusCancelled, reason, op)
	e.counters.record("cancel_transfer", err)
	if err != nil {
		logCommandError(logger, "Cancelación de transferencia rechazada", err)
		return nil, err
	}

	logger.Info("Transferencia cancelada", zap.Int("quantity", tx.Quantity))
	e.publish(ctx, events.EventTransferCancelled, tx)
	return tx, nil
}

func (e *transactionEngine) resolveTransfer(ctx context.Context, code string, to models.TransactionStatus, remarks string, op models.Operator) (*models.InventoryTransaction, error) {
	tx, err := e.GetTransaction(ctx, code)
	if err != nil {
		return nil, err
	}
	if tx.Type != models.TransactionTypeTransfer {
		return nil, apperror.InvalidArgument("la transacción %s no es una transferencia", code)
	}

	srcKey, dstKey := tx.SourceKey(), tx.DestinationKey()
	switch to {
	case models.TransactionStatusCompleted:
		if !op.CanOperateOn(dstKey.BranchID) {
			return nil, apperror.Forbidden("solo la sucursal de destino puede recibir la transferencia %s", code)
		}
	case models.TransactionStatusCancelled:
		if !op.CanOperateOn(srcKey.BranchID) && !op.CanOperateOn(dstKey.BranchID) {
			return nil, apperror.Forbidden("el operador %s no participa en la transferencia %s", op.ID, code)
		}
	}

	err = e.ledger.withRows(ctx, []models.StockKey{srcKey, dstKey}, func(ctx context.Context) error {
		// releer bajo lock: el estado pudo cambiar desde la primera lectura
		current, err := e.GetTransaction(ctx, code)
		if err != nil {
			return err
		}
		if !current.TransferMode.CanTransition(current.Status, to) {
			return apperror.InvalidState("la transferencia %s está en estado %s y no puede pasar a %s", code, current.Status, to)
		}

		now := e.ledger.now()
		if err := e.store.UpdateTransactionStatus(ctx, code, current.Status, to, &now, remarks); err != nil {
			return err
		}

		switch {
		case to == models.TransactionStatusCompleted:
			err = e.credit(ctx, dstKey, current.Quantity)
		default:
			// cancelación desde in_transit: el origen ya fue descontado al iniciar
			err = e.credit(ctx, srcKey, current.Quantity)
		}
		if err != nil {
			return err
		}

		tx = current
		tx.Status = to
		tx.CompletedAt = &now
		tx.ResolutionRemarks = remarks
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// credit suma quantity a la fila, creándola si es la primera recepción en la sucursal
func (e *transactionEngine) credit(ctx context.Context, key models.StockKey, quantity int) error {
	level, current, err := e.ledger.read(ctx, key)
	if err != nil {
		return err
	}
	return e.ledger.write(ctx, key, level, current+quantity, quantity, nil)
}

// ListStaleTransfers transferencias in_transit más antiguas que olderThan. No expiran solas.
func (e *transactionEngine) ListStaleTransfers(ctx context.Context, olderThan time.Duration) ([]*models.InventoryTransaction, error) {
	if olderThan <= 0 {
		return nil, apperror.InvalidArgument("older_than debe ser positivo")
	}

	transfer := models.TransactionTypeTransfer
	inTransit := models.TransactionStatusInTransit
	cutoff := e.ledger.now().Add(-olderThan)
	return e.store.ListTransactions(ctx, models.TransactionFilter{
		Type:          &transfer,
		Status:        &inTransit,
		CreatedBefore: &cutoff,
	})
}
