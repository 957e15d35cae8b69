package models

import (
	"fmt"
	"strings"
	"unicode/utf8"

	itemdomain "github.com/ghuser/itemsapi/services/item/domain"
)

// ItemName is a value object representing a valid item name.
// It holds 1 to 255 characters and is never blank.
type ItemName string

// MaxItemNameLength matches the VARCHAR(255) column.
const MaxItemNameLength = 255

// NewItemName constructs a valid ItemName or returns a *domain.ValidationError.
func NewItemName(s string) (ItemName, error) {
	if strings.TrimSpace(s) == "" {
		return "", itemdomain.NameRequired()
	}
	if utf8.RuneCountInString(s) > MaxItemNameLength {
		return "", &itemdomain.ValidationError{
			Field:   "name",
			Message: fmt.Sprintf("Name must be at most %d characters", MaxItemNameLength),
			Err:     itemdomain.ErrInvalidItemName,
		}
	}
	return ItemName(s), nil
}

// String returns the underlying string value.
func (n ItemName) String() string {
	return string(n)
}
