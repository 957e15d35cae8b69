// Package errhttp maps item domain errors to HTTP status codes and the fixed
// messages shown to clients. Add a case to Resolve for each new sentinel.
package errhttp

import (
	"errors"
	"net/http"

	"github.com/ghuser/itemsapi/pkg/httpx"
	itemdomain "github.com/ghuser/itemsapi/services/item/domain"
)

// Client-facing messages. Server errors never expose err.Error().
const (
	MsgItemNotFound     = "Item not found"
	MsgIDRequired       = "ID required"
	MsgMethodNotAllowed = "Method not allowed"
)

// Resolve returns the status code and client message for err.
// Uses errors.Is/As so wrapped errors are matched correctly.
// Anything unrecognized, including malformed payloads, is a 500.
func Resolve(err error) (int, string) {
	var verr *itemdomain.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Message
	case errors.Is(err, itemdomain.ErrItemNotFound):
		return http.StatusNotFound, MsgItemNotFound
	case errors.Is(err, itemdomain.ErrMissingID):
		return http.StatusBadRequest, MsgIDRequired
	case errors.Is(err, itemdomain.ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed, MsgMethodNotAllowed
	default:
		return http.StatusInternalServerError, httpx.InternalErrorMessage
	}
}

// WriteError maps err with Resolve and writes a JSON error response.
func WriteError(w http.ResponseWriter, err error) {
	status, msg := Resolve(err)
	httpx.JSONError(w, status, msg)
}
