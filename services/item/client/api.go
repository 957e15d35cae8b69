// Package client is the front-end side of the items API: an HTTP client for
// the resource and the Controller state machine a user interface drives.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Item is an item as returned by the API.
type Item struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ItemInput is the body sent on create and update.
type ItemInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// API is the items resource as seen by the Controller. Every call carries
// the session token as a bearer credential.
type API interface {
	List(ctx context.Context, token string) ([]Item, error)
	Create(ctx context.Context, token string, in ItemInput) (Item, error)
	Update(ctx context.Context, token string, id int64, in ItemInput) (Item, error)
	Delete(ctx context.Context, token string, id int64) error
}

// APIError is a non-2xx response. Message is the server's "error" field.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("items api: status %d", e.Status)
	}
	return fmt.Sprintf("items api: status %d: %s", e.Status, e.Message)
}

// HTTPAPI implements API over net/http.
type HTTPAPI struct {
	baseURL string
	client  *http.Client
}

// NewHTTPAPI returns a client for the API at baseURL.
func NewHTTPAPI(baseURL string, client *http.Client) *HTTPAPI {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPAPI{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (a *HTTPAPI) List(ctx context.Context, token string) ([]Item, error) {
	var items []Item
	if err := a.do(ctx, http.MethodGet, "/items", token, nil, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []Item{}
	}
	return items, nil
}

func (a *HTTPAPI) Create(ctx context.Context, token string, in ItemInput) (Item, error) {
	var it Item
	err := a.do(ctx, http.MethodPost, "/items", token, in, &it)
	return it, err
}

func (a *HTTPAPI) Update(ctx context.Context, token string, id int64, in ItemInput) (Item, error) {
	var it Item
	err := a.do(ctx, http.MethodPut, itemPath(id), token, in, &it)
	return it, err
}

func (a *HTTPAPI) Delete(ctx context.Context, token string, id int64) error {
	return a.do(ctx, http.MethodDelete, itemPath(id), token, nil, nil)
}

func itemPath(id int64) string {
	return "/items/" + strconv.FormatInt(id, 10)
}

func (a *HTTPAPI) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("items api: encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("items api: build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("items api: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var e struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&e) == nil {
			apiErr.Message = e.Error
		}
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("items api: decode %s %s: %w", method, path, err)
	}
	return nil
}
