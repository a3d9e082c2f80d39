package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/almatek/almacen-api/internal/application/dto"
	"github.com/almatek/almacen-api/internal/domain"
	"github.com/almatek/almacen-api/internal/domain/entity"
	"github.com/almatek/almacen-api/internal/domain/repository"
	"github.com/almatek/almacen-api/pkg/jwt"
)

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// AuthUseCase login/logout y validación de sesiones de dispositivo. El token es
// un JWT cuyo jti apunta a una fila de sesión persistida; REST y el hub push
// validan contra la misma tabla, así que revocar la sesión corta ambos canales.
type AuthUseCase struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	jwtCfg      JWTConfig
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(userRepo repository.UserRepository, sessionRepo repository.SessionRepository, jwtCfg JWTConfig) *AuthUseCase {
	return &AuthUseCase{userRepo: userRepo, sessionRepo: sessionRepo, jwtCfg: jwtCfg}
}

// Login verifica email/password, crea la sesión del dispositivo y genera el JWT.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := uc.userRepo.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	if user.Status != "active" {
		return nil, domain.ErrForbidden
	}

	now := time.Now()
	session := &entity.Session{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		CompanyID: user.CompanyID,
		DeviceID:  in.DeviceID,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Duration(uc.jwtCfg.ExpMinutes) * time.Minute),
	}
	if err := uc.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}

	token, err := jwt.Generate(uc.jwtCfg.Secret, session.ID, user.ID, user.CompanyID, user.Role, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		Token: token,
		User: dto.UserResponse{
			ID:        user.ID,
			CompanyID: user.CompanyID,
			Email:     user.Email,
			Name:      user.Name,
			Role:      user.Role,
			Status:    user.Status,
			CreatedAt: user.CreatedAt,
		},
	}, nil
}

// ValidateToken valida firma y expiración del JWT y comprueba que la sesión
// (jti) siga activa y sin revocar. Devuelve los claims si todo es válido.
func (uc *AuthUseCase) ValidateToken(ctx context.Context, tokenString string) (*jwt.Claims, error) {
	claims, err := jwt.Parse(uc.jwtCfg.Secret, tokenString)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}
	session, err := uc.sessionRepo.GetByID(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if session == nil || !session.Alive(time.Now()) {
		return nil, domain.ErrSessionExpired
	}
	return claims, nil
}

// Logout revoca la sesión del token: el push y el REST quedan inválidos a la vez.
func (uc *AuthUseCase) Logout(ctx context.Context, tokenString string) error {
	claims, err := jwt.Parse(uc.jwtCfg.Secret, tokenString)
	if err != nil {
		return domain.ErrUnauthorized
	}
	return uc.sessionRepo.Revoke(ctx, claims.ID)
}
