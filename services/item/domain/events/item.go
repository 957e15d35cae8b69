package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/ghuser/itemsapi/services/item/domain/models"
)

// Watermill topics for item lifecycle events.
const (
	TopicItemCreated = "item.created"
	TopicItemUpdated = "item.updated"
	TopicItemDeleted = "item.deleted"
)

// SchemaVersion is bumped on breaking payload changes.
const SchemaVersion = 1

// ItemSnapshot is the item state carried by created and updated events.
type ItemSnapshot struct {
	ItemID      int64     `json:"item_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ItemCreatedEvent is published in the same transaction that inserts the item.
type ItemCreatedEvent struct {
	EventID    uuid.UUID `json:"event_id"`
	Version    int       `json:"version"`
	OccurredAt time.Time `json:"occurred_at"`
	ItemSnapshot
}

// ItemUpdatedEvent is published in the same transaction that updates the item.
type ItemUpdatedEvent struct {
	EventID    uuid.UUID `json:"event_id"`
	Version    int       `json:"version"`
	OccurredAt time.Time `json:"occurred_at"`
	ItemSnapshot
}

// ItemDeletedEvent is published in the same transaction that deletes the item.
type ItemDeletedEvent struct {
	EventID    uuid.UUID `json:"event_id"`
	Version    int       `json:"version"`
	OccurredAt time.Time `json:"occurred_at"`
	ItemID     int64     `json:"item_id"`
}

func snapshot(item *models.Item) ItemSnapshot {
	return ItemSnapshot{
		ItemID:      item.ID,
		Name:        item.Name.String(),
		Description: item.Description,
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}
}

// NewItemCreated builds the created event for a freshly inserted item.
func NewItemCreated(item *models.Item) ItemCreatedEvent {
	return ItemCreatedEvent{EventID: uuid.New(), Version: SchemaVersion, OccurredAt: time.Now().UTC(), ItemSnapshot: snapshot(item)}
}

// NewItemUpdated builds the updated event for an item after the update.
func NewItemUpdated(item *models.Item) ItemUpdatedEvent {
	return ItemUpdatedEvent{EventID: uuid.New(), Version: SchemaVersion, OccurredAt: time.Now().UTC(), ItemSnapshot: snapshot(item)}
}

// NewItemDeleted builds the deleted event for id.
func NewItemDeleted(id int64) ItemDeletedEvent {
	return ItemDeletedEvent{EventID: uuid.New(), Version: SchemaVersion, OccurredAt: time.Now().UTC(), ItemID: id}
}

// Item rebuilds the domain item carried by the snapshot.
func (s ItemSnapshot) Item() *models.Item {
	return &models.Item{
		ID:          s.ItemID,
		Name:        models.ItemName(s.Name),
		Description: s.Description,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}
