package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Tipos de error del núcleo de inventario. Se envuelven con %w y se
// comparan con errors.Is en el borde HTTP.
var (
	ErrInvalidArgument        = errors.New("invalid argument")
	ErrNotFound               = errors.New("not found")
	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrConcurrentModification = errors.New("concurrent modification")
	ErrInvalidState           = errors.New("invalid state")
	ErrUnauthorized           = errors.New("unauthorized")
	ErrForbidden              = errors.New("forbidden")
)

func InvalidArgument(format string, args ...interface{}) error {
	return wrap(ErrInvalidArgument, format, args...)
}

func NotFound(format string, args ...interface{}) error {
	return wrap(ErrNotFound, format, args...)
}

func InsufficientStock(format string, args ...interface{}) error {
	return wrap(ErrInsufficientStock, format, args...)
}

func ConcurrentModification(format string, args ...interface{}) error {
	return wrap(ErrConcurrentModification, format, args...)
}

func InvalidState(format string, args ...interface{}) error {
	return wrap(ErrInvalidState, format, args...)
}

func Unauthorized(format string, args ...interface{}) error {
	return wrap(ErrUnauthorized, format, args...)
}

func Forbidden(format string, args ...interface{}) error {
	return wrap(ErrForbidden, format, args...)
}

func wrap(kind error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}

// Kind retorna el nombre del tipo de error, o "internal" si no es uno conocido
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, ErrConcurrentModification):
		return "concurrent_modification"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	default:
		return "internal"
	}
}

// HTTPStatus mapea el tipo de error a un código HTTP
func HTTPStatus(err error) int {
	return StatusForKind(Kind(err))
}

// StatusForKind igual que HTTPStatus pero a partir del nombre del tipo
func StatusForKind(kind string) int {
	switch kind {
	case "invalid_argument":
		return http.StatusBadRequest
	case "not_found":
		return http.StatusNotFound
	case "insufficient_stock":
		return http.StatusUnprocessableEntity
	case "concurrent_modification", "invalid_state":
		return http.StatusConflict
	case "unauthorized":
		return http.StatusUnauthorized
	case "forbidden":
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// IsRetryable indica si el llamador puede reintentar el comando tal cual
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}
