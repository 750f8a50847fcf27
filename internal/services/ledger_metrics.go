package services

import (
	"sync"

	"inventory-service/internal/apperror"
	"inventory-service/internal/models"
)

// ledgerCounters cuenta comandos ejecutados y fallos por tipo de error
type ledgerCounters struct {
	mu        sync.Mutex
	commands  map[string]int64
	failures  map[string]int64
	conflicts int64
}

func newLedgerCounters() *ledgerCounters {
	return &ledgerCounters{
		commands: make(map[string]int64),
		failures: make(map[string]int64),
	}
}

func (c *ledgerCounters) record(operation string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.commands[operation]++
	if err == nil {
		return
	}
	c.failures[apperror.Kind(err)]++
	if apperror.IsRetryable(err) {
		c.conflicts++
	}
}

func (c *ledgerCounters) snapshot() models.LedgerMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := models.LedgerMetrics{
		Commands:  make(map[string]int64, len(c.commands)),
		Failures:  make(map[string]int64, len(c.failures)),
		Conflicts: c.conflicts,
	}
	for k, v := range c.commands {
		out.Commands[k] = v
	}
	for k, v := range c.failures {
		out.Failures[k] = v
	}
	return out
}
