package errhttp

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	itemdomain "github.com/ghuser/itemsapi/services/item/domain"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"ErrItemNotFound", itemdomain.ErrItemNotFound, http.StatusNotFound, "Item not found"},
		{"wrapped ErrItemNotFound", fmt.Errorf("get item 7: %w", itemdomain.ErrItemNotFound), http.StatusNotFound, "Item not found"},
		{"ErrMissingID", itemdomain.ErrMissingID, http.StatusBadRequest, "ID required"},
		{"ErrMethodNotAllowed", itemdomain.ErrMethodNotAllowed, http.StatusMethodNotAllowed, "Method not allowed"},
		{"name required", itemdomain.NameRequired(), http.StatusBadRequest, "Name is required"},
		{"wrapped validation error", fmt.Errorf("create: %w", itemdomain.NameRequired()), http.StatusBadRequest, "Name is required"},
		{"bare ErrInvalidItemName", itemdomain.ErrInvalidItemName, http.StatusInternalServerError, "Internal server error"},
		{"malformed payload", fmt.Errorf("%w: unexpected EOF", itemdomain.ErrMalformedPayload), http.StatusInternalServerError, "Internal server error"},
		{"unknown error", errors.New("pq: connection refused"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, msg := Resolve(tt.err)
			if status != tt.wantStatus {
				t.Errorf("status: got %d, want %d", status, tt.wantStatus)
			}
			if msg != tt.wantMsg {
				t.Errorf("message: got %q, want %q", msg, tt.wantMsg)
			}
		})
	}
}

func TestWriteError_JSONBody(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, itemdomain.ErrItemNotFound)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("response body is not valid JSON: %v", err)
	}
	if body["error"] != "Item not found" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestWriteError_DoesNotLeakInternalDetail(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, errors.New("dial tcp 10.0.0.5:5432: connection refused"))

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("response body is not valid JSON: %v", err)
	}
	if body["error"] != "Internal server error" {
		t.Fatalf("unexpected body: %v", body)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("Content-Type: got %q", ct)
	}
}
