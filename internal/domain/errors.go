package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound         = errors.New("recurso no encontrado")
	ErrValidation       = errors.New("transición u operación inválida desde el estado actual")
	ErrConflict         = errors.New("conflicto con el estado actual")
	ErrOpenTransfer     = errors.New("ya existe un traspaso abierto para el palet")
	ErrAlreadyFinalized = errors.New("el traspaso ya fue finalizado")
	ErrUnauthorized     = errors.New("no autorizado")
	ErrForbidden        = errors.New("acceso denegado")
	ErrUserNotFound     = errors.New("usuario no encontrado")
	ErrSessionExpired   = errors.New("sesión expirada o revocada")
)
