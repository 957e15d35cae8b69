package repositories

import (
	"context"

	"github.com/ghuser/itemsapi/services/item/domain/models"
)

// ItemRepository is the persistence interface for the Item aggregate.
// The domain layer owns this interface; infrastructure implements it.
// Methods that address a single item return domain.ErrItemNotFound when
// no row matches.
type ItemRepository interface {
	// List returns every item ordered by id ascending.
	List(ctx context.Context) ([]*models.Item, error)
	GetByID(ctx context.Context, id int64) (*models.Item, error)
	// Insert stores a new item; created_at and updated_at are equal.
	Insert(ctx context.Context, draft models.NewItemDraft) (*models.Item, error)
	// Update applies patch and strictly advances updated_at.
	Update(ctx context.Context, id int64, patch models.ItemPatch) (*models.Item, error)
	// Delete hard-deletes the item.
	Delete(ctx context.Context, id int64) error
}
