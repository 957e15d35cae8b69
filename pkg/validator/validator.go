// Package validator checks decoded request bodies against their `validate`
// struct tags. Field names in messages are the JSON names.
package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/ghuser/itemsapi/pkg/httpx"
)

// MsgInvalidJSON is the error message for a body that is not valid JSON.
const MsgInvalidJSON = "Invalid JSON"

var engine = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	// notblank rejects strings made only of whitespace.
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
})

// FieldErrors maps a JSON field name to what is wrong with it.
type FieldErrors map[string]string

// Error reports the first failing field in name order, e.g.
// "username: This field is required".
func (fe FieldErrors) Error() string {
	names := make([]string, 0, len(fe))
	for n := range fe {
		names = append(names, n)
	}
	sort.Strings(names)
	if len(names) == 0 {
		return "validation failed"
	}
	return names[0] + ": " + fe[names[0]]
}

// Check validates s and returns FieldErrors when any tag fails. Other
// errors, such as a non-struct argument, are returned as is.
func Check(s any) error {
	err := engine().Struct(s)
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	fe := make(FieldErrors, len(ve))
	for _, e := range ve {
		fe[e.Field()] = describe(e)
	}
	return fe
}

func describe(e validator.FieldError) string {
	switch e.Tag() {
	case "required", "notblank":
		return "This field is required"
	case "min":
		return fmt.Sprintf("Minimum length is %s", e.Param())
	case "max":
		return fmt.Sprintf("Maximum length is %s", e.Param())
	case "printascii":
		return "Must contain only printable ASCII characters"
	default:
		return fmt.Sprintf("Validation failed on '%s'", e.Tag())
	}
}

// ValidateRequest decodes the JSON body into T and checks it. On failure it
// writes a 400 response and returns false. The body's "error" names the
// first bad field; "fields" lists all of them.
func ValidateRequest[T any](w http.ResponseWriter, r *http.Request) (*T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, MsgInvalidJSON)
		return nil, false
	}

	err := Check(&req)
	if err == nil {
		return &req, true
	}
	var fe FieldErrors
	if !errors.As(err, &fe) {
		httpx.JSONError(w, http.StatusBadRequest, "Validation failed")
		return nil, false
	}
	httpx.JSON(w, http.StatusBadRequest, map[string]any{
		"error":  fe.Error(),
		"fields": fe,
	})
	return nil, false
}
