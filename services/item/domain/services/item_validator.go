// Package services contains stateless domain services for the item bounded context.
// They operate purely on domain types and have no infrastructure dependencies.
package services

import (
	"strings"
	"unicode"

	itemdomain "github.com/ghuser/itemsapi/services/item/domain"
	"github.com/ghuser/itemsapi/services/item/domain/models"
)

// ValidateName enforces rules on top of the structural checks of
// models.NewItemName: the name must not be blank and must not contain
// control characters such as newlines or NUL.
func ValidateName(name models.ItemName) error {
	s := name.String()

	if strings.TrimSpace(s) == "" {
		return itemdomain.NameRequired()
	}

	for _, r := range s {
		if unicode.IsControl(r) {
			return &itemdomain.ValidationError{
				Field:   "name",
				Message: "Name must not contain control characters",
				Err:     itemdomain.ErrInvalidItemName,
			}
		}
	}

	return nil
}

// ValidateDraft checks a creation draft before it is persisted.
func ValidateDraft(d models.NewItemDraft) error {
	return ValidateName(d.Name)
}

// ValidatePatch checks a partial update. A present name must be a valid,
// non-blank name; null counts as blank. Description accepts any value,
// including null which clears it.
func ValidatePatch(p models.ItemPatch) error {
	if !p.Name.Set {
		return nil
	}
	name, err := models.NewItemName(p.Name.Value)
	if err != nil {
		return err
	}
	return ValidateName(name)
}
