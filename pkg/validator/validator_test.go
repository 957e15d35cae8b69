package validator_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgvalidator "github.com/ghuser/itemsapi/pkg/validator"
)

type loginReq struct {
	Username string `json:"username" validate:"required,notblank,max=8"`
	Password string `json:"password" validate:"required"`
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name  string
		input loginReq
		want  pkgvalidator.FieldErrors
	}{
		{"valid", loginReq{Username: "ana", Password: "pw"}, nil},
		{"missing both", loginReq{}, pkgvalidator.FieldErrors{
			"username": "This field is required",
			"password": "This field is required",
		}},
		{"blank username", loginReq{Username: "   ", Password: "pw"}, pkgvalidator.FieldErrors{
			"username": "This field is required",
		}},
		{"too long", loginReq{Username: "abcdefghi", Password: "pw"}, pkgvalidator.FieldErrors{
			"username": "Maximum length is 8",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := pkgvalidator.Check(&tt.input)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var got pkgvalidator.FieldErrors
			if !errors.As(err, &got) {
				t.Fatalf("expected FieldErrors, got %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("%s: got %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func TestFieldErrors_Error(t *testing.T) {
	fe := pkgvalidator.FieldErrors{"username": "This field is required", "password": "too short"}
	if got := fe.Error(); got != "password: too short" {
		t.Errorf("got %q", got)
	}
}

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantOK     bool
		wantStatus int
		wantBody   string
	}{
		{"valid", `{"username":"ana","password":"pw"}`, true, http.StatusOK, ""},
		{"malformed JSON", "{bad json", false, http.StatusBadRequest, pkgvalidator.MsgInvalidJSON},
		{"missing password", `{"username":"ana"}`, false, http.StatusBadRequest, `"error":"password: This field is required"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			req, ok := pkgvalidator.ValidateRequest[loginReq](w, r)
			if ok != tt.wantOK {
				t.Fatalf("expected ok=%v, got %v (body %s)", tt.wantOK, ok, w.Body.String())
			}
			if ok {
				if req.Username != "ana" {
					t.Errorf("unexpected username %q", req.Username)
				}
				return
			}
			if w.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, w.Code)
			}
			if !strings.Contains(w.Body.String(), tt.wantBody) {
				t.Errorf("expected %s in body, got %s", tt.wantBody, w.Body.String())
			}
		})
	}
}
