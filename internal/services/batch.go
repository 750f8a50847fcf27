package services

import (
	"fmt"
	"time"

	"inventory-service/internal/apperror"
	"inventory-service/internal/models"

	"github.com/shopspring/decimal"
)

type batchBuilder struct {
	*models.BatchResponse
}

func newBatchResponse() *batchBuilder {
	return &batchBuilder{&models.BatchResponse{
		Results: []models.BatchLineResult{},
	}}
}

func (b *batchBuilder) add(line models.BatchLine, result *models.MovementResult, err error) {
	if err != nil {
		b.Errors = append(b.Errors, models.BatchLineError{
			ProductID:   line.ProductID,
			VariationID: line.VariationID,
			Kind:        apperror.Kind(err),
			Error:       err.Error(),
		})
		return
	}
	b.Results = append(b.Results, models.BatchLineResult{
		ProductID:       line.ProductID,
		VariationID:     line.VariationID,
		TransactionCode: result.Transaction.TransactionCode,
		Quantity:        line.Quantity,
		NewQuantity:     result.NewQuantity,
	})
}

// finish success es true si al menos una línea quedó registrada; las
// rechazadas van en errors y pueden reenviarse solas
func (b *batchBuilder) finish(okMessage string) {
	b.TotalProcessed = len(b.Results)
	b.Success = b.TotalProcessed > 0
	switch {
	case len(b.Errors) == 0:
		b.Message = okMessage
	case b.Success:
		b.Message = fmt.Sprintf("%d de %d productos procesados; reenviar solo las líneas rechazadas",
			b.TotalProcessed, b.TotalProcessed+len(b.Errors))
	default:
		b.Message = "Ningún producto pudo ser procesado"
	}
	b.Timestamp = time.Now().Format(time.RFC3339)
}

func decimalFromInt(v int) decimal.Decimal {
	return decimal.NewFromInt(int64(v))
}
