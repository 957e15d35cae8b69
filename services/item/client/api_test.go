package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPAPI_SendsBearerAndDecodes(t *testing.T) {
	var gotAuth, gotMethod, gotPath, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotMethod, gotPath = r.Method, r.URL.Path
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			_, _ = w.Write([]byte(`[{"id":1,"name":"A","description":null,"created_at":"2024-01-15T10:30:00Z","updated_at":"2024-01-15T10:30:00Z"}]`))
		case http.MethodDelete:
			_, _ = w.Write([]byte(`{"message":"Item deleted"}`))
		default:
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":9,"name":"B","description":"d","created_at":"2024-01-15T10:30:00Z","updated_at":"2024-01-15T10:30:00Z"}`))
		}
	}))
	defer srv.Close()
	api := NewHTTPAPI(srv.URL+"/", srv.Client())
	ctx := context.Background()

	items, err := api.List(ctx, "tok")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Nil(t, items[0].Description)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "/items", gotPath)

	it, err := api.Create(ctx, "tok", ItemInput{Name: "B", Description: "d"})
	require.NoError(t, err)
	assert.Equal(t, int64(9), it.ID)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.JSONEq(t, `{"name":"B","description":"d"}`, gotBody)

	_, err = api.Update(ctx, "tok", 9, ItemInput{Name: "B"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/items/9", gotPath)

	require.NoError(t, api.Delete(ctx, "tok", 9))
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/items/9", gotPath)
}

func TestHTTPAPI_EmptyListIsNotNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	items, err := NewHTTPAPI(srv.URL, srv.Client()).List(context.Background(), "tok")

	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestHTTPAPI_ErrorResponses(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantMsg    string
	}{
		{"not found", http.StatusNotFound, `{"error":"Item not found"}`, 404, "Item not found"},
		{"unauthorized", http.StatusUnauthorized, `{"error":"Unauthorized"}`, 401, "Unauthorized"},
		{"server error", http.StatusInternalServerError, `{"error":"Internal server error"}`, 500, "Internal server error"},
		{"non-json body", http.StatusBadGateway, `<html>bad gateway</html>`, 502, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			err := NewHTTPAPI(srv.URL, srv.Client()).Delete(context.Background(), "tok", 1)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr), "got %v", err)
			assert.Equal(t, tt.wantStatus, apiErr.Status)
			assert.Equal(t, tt.wantMsg, apiErr.Message)
		})
	}
}

func TestHTTPAPI_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTPAPI(url, nil).List(context.Background(), "tok")

	require.Error(t, err)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestHTTPAPI_MalformedSuccessBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id":`))
	}))
	defer srv.Close()

	_, err := NewHTTPAPI(srv.URL, srv.Client()).Create(context.Background(), "tok", ItemInput{Name: "A"})

	require.Error(t, err)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}
