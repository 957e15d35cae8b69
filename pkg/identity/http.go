package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required,notblank,max=128"`
	Password string `json:"password" validate:"required,max=256"`
}

// LoginResponse is the success body of POST /auth/login.
type LoginResponse struct {
	IDToken string `json:"id_token"`
}

// HTTPAuthenticator authenticates against the API's login endpoint.
type HTTPAuthenticator struct {
	baseURL string
	client  *http.Client
}

// NewHTTPAuthenticator returns an authenticator for the API at baseURL.
func NewHTTPAuthenticator(baseURL string, client *http.Client) *HTTPAuthenticator {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPAuthenticator{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// Authenticate posts the credentials. A rejection carries the server's
// message as a *Failure; transport problems are returned as plain errors.
func (a *HTTPAuthenticator) Authenticate(ctx context.Context, username, password string) Result {
	body, err := json.Marshal(LoginRequest{Username: username, Password: password})
	if err != nil {
		return Result{Err: fmt.Errorf("identity: encode login: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return Result{Err: fmt.Errorf("identity: build login request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return Result{Err: fmt.Errorf("identity: login request: %w", err)}
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&e) == nil && e.Error != "" && resp.StatusCode < http.StatusInternalServerError {
			return Result{Err: &Failure{Message: e.Error}}
		}
		return Result{Err: fmt.Errorf("identity: login returned %d", resp.StatusCode)}
	}

	var out LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Result{Err: fmt.Errorf("identity: decode login response: %w", err)}
	}
	if out.IDToken == "" {
		return Result{Err: fmt.Errorf("identity: login response without id_token")}
	}
	return Result{Token: out.IDToken}
}
