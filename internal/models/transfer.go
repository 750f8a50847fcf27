package models

// TransferMode se fija al crear la transferencia y define qué transiciones son legales
type TransferMode string

const (
	// TransferModeImmediate descuenta origen y acredita destino en el mismo comando
	TransferModeImmediate TransferMode = "immediate"
	// TransferModeDeferred descuenta origen ahora y acredita destino al recibir
	TransferModeDeferred TransferMode = "deferred"
)

// TransferModeFor traduce el flag immediate del request
func TransferModeFor(immediate bool) TransferMode {
	if immediate {
		return TransferModeImmediate
	}
	return TransferModeDeferred
}

var transferTransitions = map[TransferMode]map[TransactionStatus][]TransactionStatus{
	TransferModeImmediate: {},
	TransferModeDeferred: {
		TransactionStatusInTransit: {TransactionStatusCompleted, TransactionStatusCancelled},
	},
}

// IsValid retorna true si el modo es conocido
func (m TransferMode) IsValid() bool {
	_, ok := transferTransitions[m]
	return ok
}

// InitialStatus estado con el que nace la transferencia
func (m TransferMode) InitialStatus() TransactionStatus {
	if m == TransferModeImmediate {
		return TransactionStatusCompleted
	}
	return TransactionStatusInTransit
}

// CanTransition indica si from → to es legal para este modo
func (m TransferMode) CanTransition(from, to TransactionStatus) bool {
	for _, next := range transferTransitions[m][from] {
		if next == to {
			return true
		}
	}
	return false
}
