package services

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper reevalúa alertas periódicamente y avisa de transferencias estancadas
type Sweeper struct {
	alerts     *AlertEngine
	engine     TransactionEngine
	interval   time.Duration
	staleAfter time.Duration
	logger     *zap.Logger
}

// NewSweeper crea el barrido; interval 0 lo deja deshabilitado
func NewSweeper(alerts *AlertEngine, engine TransactionEngine, interval, staleAfter time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		alerts:     alerts,
		engine:     engine,
		interval:   interval,
		staleAfter: staleAfter,
		logger:     logger.With(zap.String("component", "sweeper")),
	}
}

// Start corre hasta que ctx se cancele
func (s *Sweeper) Start(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Info("Sweeper deshabilitado")
		return
	}

	s.logger.Info("Starting alert sweeper", zap.Duration("interval", s.interval))
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Stopping alert sweeper")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce ejecuta un barrido
func (s *Sweeper) RunOnce(ctx context.Context) {
	active, pruned, err := s.alerts.Sweep(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error("Barrido de alertas falló", zap.Error(err))
		}
		return
	}
	s.logger.Debug("Barrido de alertas", zap.Int("active", active), zap.Int("pruned", pruned))

	if s.staleAfter <= 0 {
		return
	}
	stale, err := s.engine.ListStaleTransfers(ctx, s.staleAfter)
	if err != nil {
		s.logger.Error("No se pudieron listar transferencias estancadas", zap.Error(err))
		return
	}
	for _, tx := range stale {
		s.logger.Warn("Transferencia en tránsito sin recibir",
			zap.String("transaction_code", tx.TransactionCode),
			zap.Time("created_at", tx.CreatedAt),
			zap.Int("quantity", tx.Quantity))
	}
}
