package services

import (
	"sort"
	"sync"

	"inventory-service/internal/models"
)

// rowLocks mutex por fila del ledger, creados a demanda y liberados al quedar sin uso
type rowLocks struct {
	mu    sync.Mutex
	locks map[string]*rowLock
}

type rowLock struct {
	mu   sync.Mutex
	refs int
}

func newRowLocks() *rowLocks {
	return &rowLocks{locks: make(map[string]*rowLock)}
}

// Lock toma las filas en orden de clave para que dos transferencias cruzadas
// no se bloqueen mutuamente. Retorna la función que las libera.
func (r *rowLocks) Lock(keys ...models.StockKey) func() {
	names := make([]string, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		name := k.String()
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)

	held := make([]*rowLock, 0, len(names))
	for _, name := range names {
		l := r.acquire(name)
		l.mu.Lock()
		held = append(held, l)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].mu.Unlock()
			r.release(names[i])
		}
	}
}

func (r *rowLocks) acquire(name string) *rowLock {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[name]
	if !ok {
		l = &rowLock{}
		r.locks[name] = l
	}
	l.refs++
	return l
}

func (r *rowLocks) release(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l := r.locks[name]
	l.refs--
	if l.refs == 0 {
		delete(r.locks, name)
	}
}

// size filas con lock vivo
func (r *rowLocks) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.locks)
}
