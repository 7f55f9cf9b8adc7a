package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrAlreadyBilled     = errors.New("el reporte ya fue facturado")
	ErrInvalidAdjustment = errors.New("ajuste global fuera de rango")
	ErrSessionNotFound   = errors.New("sesión de edición no encontrada o expirada")
)
