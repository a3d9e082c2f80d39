package http_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/almatek/almacen-api/internal/application/auth"
	"github.com/almatek/almacen-api/internal/application/dto"
	"github.com/almatek/almacen-api/internal/domain/entity"
	apphttp "github.com/almatek/almacen-api/internal/interfaces/http"
	pkgjwt "github.com/almatek/almacen-api/pkg/jwt"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testUserID    = "00000000-0000-0000-0000-000000000001"
	testCompanyID = "00000000-0000-0000-0000-000000000002"
	testIssuer    = "almacen-api-test"
	testExpMin    = 60
)

type memUsers struct {
	mu    sync.Mutex
	byID  map[string]*entity.User
	byEml map[string]*entity.User
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[string]*entity.User{}, byEml: map[string]*entity.User{}}
}

func (m *memUsers) Create(_ context.Context, u *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.byID[u.ID] = &cp
	m.byEml[u.Email] = &cp
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byEml[email]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

type memSessions struct {
	mu   sync.Mutex
	rows map[string]*entity.Session
}

func newMemSessions() *memSessions {
	return &memSessions{rows: map[string]*entity.Session{}}
}

func (m *memSessions) Create(_ context.Context, s *entity.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.rows[s.ID] = &cp
	return nil
}

func (m *memSessions) GetByID(_ context.Context, id string) (*entity.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.rows[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

func (m *memSessions) Revoke(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.rows[id]; ok && s.RevokedAt == nil {
		now := time.Now()
		s.RevokedAt = &now
	}
	return nil
}

type authFixture struct {
	uc       *auth.AuthUseCase
	users    *memUsers
	sessions *memSessions
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	users := newMemUsers()
	sessions := newMemSessions()
	uc := auth.NewAuthUseCase(users, sessions, auth.JWTConfig{
		Secret:     testJWTSecret,
		ExpMinutes: testExpMin,
		Issuer:     testIssuer,
	})

	hash, err := bcrypt.GenerateFromPassword([]byte("secreto123"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, users.Create(context.Background(), &entity.User{
		ID:           testUserID,
		CompanyID:    testCompanyID,
		Email:        "operario@almatek.es",
		PasswordHash: string(hash),
		Name:         "Operario Uno",
		Role:         entity.RoleOperario,
		Status:       "active",
	}))
	return &authFixture{uc: uc, users: users, sessions: sessions}
}

// sembrarToken crea una sesión viva y un JWT atado a ella con el rol indicado.
func (f *authFixture) sembrarToken(t *testing.T, role string) string {
	t.Helper()
	sessionID := "sesion-" + role
	require.NoError(t, f.sessions.Create(context.Background(), &entity.Session{
		ID:        sessionID,
		UserID:    testUserID,
		CompanyID: testCompanyID,
		DeviceID:  "terminal-01",
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}))
	tok, err := pkgjwt.Generate(testJWTSecret, sessionID, testUserID, testCompanyID, role, testIssuer, testExpMin)
	require.NoError(t, err)
	return tok
}

// buildTestApp aplicación Fiber mínima: AuthMiddleware + RequireRole + handler
// dummy que devuelve 200 con el rol del contexto.
func buildTestApp(f *authFixture, allowedRoles ...string) *fiber.App {
	app := fiber.New()
	handlers := []fiber.Handler{apphttp.AuthMiddleware(f.uc)}
	if len(allowedRoles) > 0 {
		handlers = append(handlers, apphttp.RequireRole(allowedRoles...))
	}
	handlers = append(handlers, func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"ok":         true,
			"user_id":    apphttp.GetUserID(c),
			"company_id": apphttp.GetCompanyID(c),
			"role":       apphttp.GetRole(c),
		})
	})
	app.Get("/protected", handlers...)
	return app
}

func doRequest(t *testing.T, app *fiber.App, authHeader string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests AuthMiddleware
// ──────────────────────────────────────────────────────────────────────────────

func TestAuthMiddleware_ExtraeClaims(t *testing.T) {
	f := newAuthFixture(t)
	app := buildTestApp(f)

	resp := doRequest(t, app, "Bearer "+f.sembrarToken(t, entity.RoleOperario))
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, testUserID, body["user_id"])
	assert.Equal(t, testCompanyID, body["company_id"])
	assert.Equal(t, entity.RoleOperario, body["role"])
}

func TestAuthMiddleware_SinHeaderRetorna401(t *testing.T) {
	f := newAuthFixture(t)
	app := buildTestApp(f)

	resp := doRequest(t, app, "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "MISSING_TOKEN")
}

func TestAuthMiddleware_FormatoInvalidoRetorna401(t *testing.T) {
	f := newAuthFixture(t)
	app := buildTestApp(f)

	resp := doRequest(t, app, "Basic dXNlcjpwYXNz")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthMiddleware_TokenMalformadoRetorna401(t *testing.T) {
	f := newAuthFixture(t)
	app := buildTestApp(f)

	resp := doRequest(t, app, "Bearer token.invalido.aqui")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// Un JWT criptográficamente válido sin fila de sesión viva no sirve: la verdad
// está en la tabla de sesiones, no en la firma.
func TestAuthMiddleware_SinSesionRetorna401(t *testing.T) {
	f := newAuthFixture(t)
	app := buildTestApp(f)

	tok, err := pkgjwt.Generate(testJWTSecret, "sesion-inexistente", testUserID, testCompanyID, entity.RoleOperario, testIssuer, testExpMin)
	require.NoError(t, err)

	resp := doRequest(t, app, "Bearer "+tok)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthMiddleware_SesionRevocadaRetorna401(t *testing.T) {
	f := newAuthFixture(t)
	app := buildTestApp(f)
	tok := f.sembrarToken(t, entity.RoleOperario)

	resp := doRequest(t, app, "Bearer "+tok)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode, "antes de revocar el token funciona")

	require.NoError(t, f.sessions.Revoke(context.Background(), "sesion-"+entity.RoleOperario))

	resp = doRequest(t, app, "Bearer "+tok)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode,
		"la revocación corta el acceso aunque el JWT siga firmado correctamente")
}

// El logout revoca la sesión del jti: el mismo token deja de valer.
func TestLogout_InvalidaElToken(t *testing.T) {
	f := newAuthFixture(t)
	app := buildTestApp(f)
	tok := f.sembrarToken(t, entity.RoleOperario)

	require.NoError(t, f.uc.Logout(context.Background(), tok))

	resp := doRequest(t, app, "Bearer "+tok)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests RequireRole
// ──────────────────────────────────────────────────────────────────────────────

func TestRequireRole_SupervisorAccede(t *testing.T) {
	f := newAuthFixture(t)
	app := buildTestApp(f, entity.RoleSupervisor, entity.RoleAdmin)

	resp := doRequest(t, app, "Bearer "+f.sembrarToken(t, entity.RoleSupervisor))
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRequireRole_OperarioBloqueado(t *testing.T) {
	f := newAuthFixture(t)
	app := buildTestApp(f, entity.RoleSupervisor, entity.RoleAdmin)

	resp := doRequest(t, app, "Bearer "+f.sembrarToken(t, entity.RoleOperario))
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode,
		"operario no debe acceder a rutas de supervisor")

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "FORBIDDEN")
}

// ──────────────────────────────────────────────────────────────────────────────
// Login de extremo a extremo contra los repos en memoria
// ──────────────────────────────────────────────────────────────────────────────

func TestLogin_TokenEmitidoPasaElMiddleware(t *testing.T) {
	f := newAuthFixture(t)
	app := buildTestApp(f)

	out, err := f.uc.Login(context.Background(), dto.LoginRequest{
		Email:    "operario@almatek.es",
		Password: "secreto123",
		DeviceID: "terminal-01",
	})
	require.NoError(t, err)
	require.NotEmpty(t, out.Token)
	assert.Equal(t, testUserID, out.User.ID)

	resp := doRequest(t, app, "Bearer "+out.Token)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
