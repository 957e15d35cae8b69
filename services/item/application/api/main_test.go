package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ghuser/itemsapi/pkg/app"
	"github.com/ghuser/itemsapi/pkg/config"
	"github.com/ghuser/itemsapi/pkg/httpx"
	"github.com/ghuser/itemsapi/pkg/identity"
	"github.com/ghuser/itemsapi/pkg/logger"
	appsvcs "github.com/ghuser/itemsapi/services/item/application/services"
	"github.com/ghuser/itemsapi/services/item/infrastructure/persistence/memory"
)

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	r := chi.NewRouter()
	mount(t, r)
	return r
}

func mount(t *testing.T, r chi.Router) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	provider, err := identity.NewLocalProvider(identity.LocalConfig{
		Secret:   []byte("routing-test-secret-0123456789"),
		Issuer:   "itemsapi",
		Audience: "itemsapi-web",
		TTL:      time.Minute,
		Users:    map[string][]byte{"ana": hash},
	})
	require.NoError(t, err)

	a := &app.Application{
		Config:   &config.Config{CORSAllowedOrigins: "*"},
		Logger:   logger.Discard(),
		Identity: provider,
	}
	svc := appsvcs.NewItemService(memory.NewItemRepository(), nil, a.Logger)

	Register(r, svc, a)
}

func login(t *testing.T, h http.Handler) string {
	t.Helper()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"ana","password":"s3cret"}`))
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp identity.LoginResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.IDToken)
	return resp.IDToken
}

func send(h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestLogin_WrongPassword(t *testing.T) {
	h := newRouter(t)

	rr := send(h, http.MethodPost, "/auth/login", "", `{"username":"ana","password":"nope"}`)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, `{"error":"Incorrect username or password."}`, rr.Body.String())
}

func TestLogin_MissingFields(t *testing.T) {
	h := newRouter(t)

	rr := send(h, http.MethodPost, "/auth/login", "", `{"username":"ana"}`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestItems_RequireBearerToken(t *testing.T) {
	h := newRouter(t)

	for _, token := range []string{"", "not-a-jwt"} {
		rr := send(h, http.MethodGet, "/items", token, "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.JSONEq(t, `{"error":"Unauthorized"}`, rr.Body.String())
	}
}

func TestItems_Routes(t *testing.T) {
	h := newRouter(t)
	token := login(t, h)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{"list empty", http.MethodGet, "/items", "", http.StatusOK},
		{"create", http.MethodPost, "/items", `{"name":"A","description":"first"}`, http.StatusCreated},
		{"get", http.MethodGet, "/items/1", "", http.StatusOK},
		{"update", http.MethodPut, "/items/1", `{"description":"updated"}`, http.StatusOK},
		{"update without id", http.MethodPut, "/items", `{"name":"x"}`, http.StatusBadRequest},
		{"delete without id", http.MethodDelete, "/items", "", http.StatusBadRequest},
		{"patch not allowed", http.MethodPatch, "/items/1", `{}`, http.StatusMethodNotAllowed},
		{"non-integer id", http.MethodGet, "/items/abc", "", http.StatusNotFound},
		{"delete", http.MethodDelete, "/items/1", "", http.StatusOK},
		{"get after delete", http.MethodGet, "/items/1", "", http.StatusNotFound},
	}

	// Steps share one store and run in order.
	for _, tt := range tests {
		rr := send(h, tt.method, tt.path, token, tt.body)
		assert.Equal(t, tt.wantStatus, rr.Code, "%s: %s", tt.name, rr.Body.String())
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"), tt.name)
		assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"), tt.name)
	}
}

func TestItems_SingleAllowOriginBehindCORSMiddleware(t *testing.T) {
	passthrough := func(next http.Handler) http.Handler { return next }
	r := httpx.NewRouter(httpx.ServerConfig{CORSAllowedOrigins: "*"}, passthrough, passthrough, passthrough, passthrough)
	mount(t, r)
	token := login(t, r)

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodGet, "/items", ""},
		{http.MethodPost, "/items", `{"name":"A"}`},
		{http.MethodGet, "/items/999", ""},
	} {
		req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Origin", "http://localhost:3000")
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		got := rr.Result().Header.Values("Access-Control-Allow-Origin")
		require.Len(t, got, 1, "%s %s", tc.method, tc.path)
		assert.Equal(t, "*", got[0])
	}
}

func TestItems_AllowOriginWithoutOriginHeader(t *testing.T) {
	h := newRouter(t)
	token := login(t, h)

	rr := send(h, http.MethodGet, "/items", token, "")
	assert.Equal(t, []string{"*"}, rr.Result().Header.Values("Access-Control-Allow-Origin"))
}
