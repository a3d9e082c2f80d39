package dto

import "time"

// LoginRequest credenciales + identificador del dispositivo.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	DeviceID string `json:"deviceId"`
}

// LoginResponse token de sesión y datos del usuario.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// UserResponse usuario sin campos sensibles.
type UserResponse struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"companyId"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// PalletRequest alta de un palet.
type PalletRequest struct {
	Code      string `json:"codigo"`
	Warehouse string `json:"almacen"`
	Location  string `json:"ubicacion"`
	Height    string `json:"alto,omitempty"`
	Weight    string `json:"peso,omitempty"`
}

// ClosePalletRequest cierre de un palet. El traspaso en curso del propio
// cierre (si existe) se excluye de la comprobación de traspasos abiertos.
type ClosePalletRequest struct {
	TransferID string `json:"traspasoId,omitempty"`
}

// PalletResponse representación HTTP de un palet.
type PalletResponse struct {
	ID        string     `json:"id"`
	Code      string     `json:"codigo"`
	State     string     `json:"estado"`
	Warehouse string     `json:"almacen"`
	Location  string     `json:"ubicacion"`
	OpenedBy  string     `json:"abiertoPor"`
	ClosedBy  string     `json:"cerradoPor,omitempty"`
	Emptied   bool       `json:"vaciado"`
	EmptiedAt *time.Time `json:"vaciadoEn,omitempty"`
	CreatedAt time.Time  `json:"creadoEn"`
}
