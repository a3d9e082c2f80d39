package entity

import "time"

// Roles válidos para User.
const (
	RoleOperario   = "operario"
	RoleSupervisor = "supervisor"
	RoleAdmin      = "admin"
)

// User representa un usuario del sistema (operario móvil o supervisor de escritorio).
type User struct {
	ID           string
	CompanyID    string
	Email        string
	PasswordHash string // bcrypt hash, nunca plano en dominio después de persistir
	Name         string
	Role         string // operario, supervisor, admin
	Status       string // active, inactive, suspended
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session sesión de dispositivo. El jti del JWT apunta a una de estas filas;
// REST y el hub push validan contra la misma tabla.
type Session struct {
	ID        string // viaja como jti en el token
	UserID    string
	CompanyID string
	DeviceID  string // identificador del terminal móvil o puesto de escritorio
	CreatedAt time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
}

// Alive indica si la sesión sigue siendo válida en el instante now.
func (s *Session) Alive(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
