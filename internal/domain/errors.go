package domain

import "errors"

// Errores de dominio (sin dependencias externas). Los casos de uso los envuelven
// con fmt.Errorf("%w: ...") para añadir contexto; la capa HTTP los mapea con errors.Is.
var (
	ErrNotFound             = errors.New("recurso no encontrado")
	ErrInvalidTransition    = errors.New("transición no permitida")
	ErrTransferRuleNotFound = errors.New("regla de traslado no encontrada")
	ErrConflict             = errors.New("conflicto con el estado actual")
	ErrDuplicateScan        = errors.New("serial duplicado")
	ErrPreconditionFailed   = errors.New("precondición no cumplida")
	ErrConfiguration        = errors.New("configuración del sistema incompleta")
	ErrTransaction          = errors.New("transacción revertida")
	ErrInvalidInput         = errors.New("entrada inválida")
	ErrForbidden            = errors.New("el rol del actor no permite la operación")
)
