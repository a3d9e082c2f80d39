package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/almatek/almacen-api/internal/application/dto"
)

// Client cliente HTTP del backend para el agente de dispositivo. Guarda el
// token de sesión tras Login y lo adjunta como Bearer en cada petición.
type Client struct {
	baseURL string
	http    *http.Client

	token  string
	userID string
}

// New construye el cliente contra baseURL (sin barra final).
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// UserID identificador del usuario autenticado (tras Login).
func (c *Client) UserID() string {
	return c.userID
}

// Token token de sesión vigente (tras Login). Sirve también para el websocket.
func (c *Client) Token() string {
	return c.token
}

// Login autentica el dispositivo y retiene el token para el resto de llamadas.
func (c *Client) Login(ctx context.Context, email, password, deviceID string) error {
	body, _ := json.Marshal(dto.LoginRequest{Email: email, Password: password, DeviceID: deviceID})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth/login", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("login: estado HTTP %d", resp.StatusCode)
	}
	var out dto.LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("login: decodificar respuesta: %w", err)
	}
	c.token = out.Token
	c.userID = out.User.ID
	return nil
}

// Transfers lista los traspasos del usuario filtrados por estados.
func (c *Client) Transfers(ctx context.Context, states []string) ([]dto.TransferResponse, error) {
	q := url.Values{}
	if len(states) > 0 {
		q.Set("estados", strings.Join(states, ","))
	}
	var out []dto.TransferResponse
	if err := c.get(ctx, "/api/transfers", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Orders lista las órdenes asignadas al usuario filtradas por tipos y estados.
func (c *Client) Orders(ctx context.Context, types, states []string) ([]dto.OrderResponse, error) {
	q := url.Values{}
	if len(types) > 0 {
		q.Set("tipos", strings.Join(types, ","))
	}
	if len(states) > 0 {
		q.Set("estados", strings.Join(states, ","))
	}
	var out []dto.OrderResponse
	if err := c.get(ctx, "/api/orders", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("GET %s: estado HTTP %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
