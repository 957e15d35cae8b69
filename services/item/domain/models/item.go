package models

import "time"

// Item is the single aggregate of this bounded context. ID and the
// timestamps are assigned by storage.
type Item struct {
	ID          int64
	Name        ItemName
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewItemDraft is the validated input for creating an Item.
type NewItemDraft struct {
	Name        ItemName
	Description *string
}

// NewDraft validates name and returns a draft ready to be inserted. An
// empty description is stored as no description.
func NewDraft(name string, description *string) (NewItemDraft, error) {
	n, err := NewItemName(name)
	if err != nil {
		return NewItemDraft{}, err
	}
	if description != nil && *description == "" {
		description = nil
	}
	return NewItemDraft{Name: n, Description: description}, nil
}

// ItemPatch is a partial update. Fields that are not Set are left unchanged.
// A Set Description holding nil clears the stored description.
type ItemPatch struct {
	Name        Optional[string]
	Description Optional[*string]
}

// Apply returns a copy of item with the patch applied. Timestamps are left
// to storage.
func (p ItemPatch) Apply(item Item) Item {
	if p.Name.Set {
		item.Name = ItemName(p.Name.Value)
	}
	if p.Description.Set {
		item.Description = p.Description.Value
	}
	return item
}
