package repository

import (
	"context"

	"github.com/almatek/almacen-api/internal/domain/entity"
)

// UserRepository define el puerto de persistencia para User.
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
}

// SessionRepository define el puerto del almacén de sesiones de dispositivo.
// REST y el hub push validan el bearer contra la misma tabla.
type SessionRepository interface {
	Create(ctx context.Context, s *entity.Session) error
	GetByID(ctx context.Context, id string) (*entity.Session, error)
	Revoke(ctx context.Context, id string) error
}
