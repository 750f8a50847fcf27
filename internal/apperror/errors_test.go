package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindAndStatus(t *testing.T) {
	cases := []struct {
		err    error
		kind   string
		status int
	}{
		{InvalidArgument("quantity must be positive"), "invalid_argument", http.StatusBadRequest},
		{NotFound("branch %d", 7), "not_found", http.StatusNotFound},
		{InsufficientStock("available 3, requested 5"), "insufficient_stock", http.StatusUnprocessableEntity},
		{ConcurrentModification("row changed"), "concurrent_modification", http.StatusConflict},
		{InvalidState("already completed"), "invalid_state", http.StatusConflict},
		{Forbidden("other branch"), "forbidden", http.StatusForbidden},
		{errors.New("boom"), "internal", http.StatusInternalServerError},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.kind, Kind(tc.err), tc.err.Error())
		assert.Equal(t, tc.status, HTTPStatus(tc.err), tc.err.Error())
	}
}

func TestWrappedErrorsKeepKind(t *testing.T) {
	err := fmt.Errorf("stock out failed: %w", InsufficientStock("available %d, requested %d", 3, 5))

	assert.True(t, errors.Is(err, ErrInsufficientStock))
	assert.Equal(t, "stock out failed: insufficient stock: available 3, requested 5", err.Error())
	assert.False(t, IsRetryable(err))
	assert.True(t, IsRetryable(fmt.Errorf("x: %w", ConcurrentModification("y"))))
}
