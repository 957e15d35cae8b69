// Package subscribers holds the item event handlers run by the worker.
package subscribers

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/ghuser/itemsapi/pkg/events"
	"github.com/ghuser/itemsapi/pkg/logger"
	itemEvents "github.com/ghuser/itemsapi/services/item/domain/events"
)

// Evicter removes an item from the read cache.
type Evicter interface {
	Delete(ctx context.Context, id int64) error
}

// Handler processes one event message. Returning an error makes the
// EventBus retry it.
type Handler func(context.Context, *message.Message) error

// CacheInvalidator evicts cached items whenever an item event arrives.
// The API evicts on its own writes; this catches evictions that failed
// there. Events for one item may arrive out of order across topics, so
// the cache is never written from an event, only cleared.
type CacheInvalidator struct {
	cache Evicter
	log   logger.Logger
}

// NewCacheInvalidator returns a CacheInvalidator evicting from cache.
func NewCacheInvalidator(cache Evicter, log logger.Logger) *CacheInvalidator {
	return &CacheInvalidator{cache: cache, log: log}
}

// Handlers maps every item topic to its handler.
func (c *CacheInvalidator) Handlers() map[string]Handler {
	return map[string]Handler{
		itemEvents.TopicItemCreated: c.HandleCreated,
		itemEvents.TopicItemUpdated: c.HandleUpdated,
		itemEvents.TopicItemDeleted: c.HandleDeleted,
	}
}

func (c *CacheInvalidator) HandleCreated(ctx context.Context, msg *message.Message) error {
	evt, err := events.Decode[itemEvents.ItemCreatedEvent](msg)
	if err != nil {
		return c.drop(ctx, itemEvents.TopicItemCreated, err)
	}
	return c.evict(ctx, itemEvents.TopicItemCreated, evt.Version, evt.ItemID)
}

func (c *CacheInvalidator) HandleUpdated(ctx context.Context, msg *message.Message) error {
	evt, err := events.Decode[itemEvents.ItemUpdatedEvent](msg)
	if err != nil {
		return c.drop(ctx, itemEvents.TopicItemUpdated, err)
	}
	return c.evict(ctx, itemEvents.TopicItemUpdated, evt.Version, evt.ItemID)
}

func (c *CacheInvalidator) HandleDeleted(ctx context.Context, msg *message.Message) error {
	evt, err := events.Decode[itemEvents.ItemDeletedEvent](msg)
	if err != nil {
		return c.drop(ctx, itemEvents.TopicItemDeleted, err)
	}
	return c.evict(ctx, itemEvents.TopicItemDeleted, evt.Version, evt.ItemID)
}

func (c *CacheInvalidator) evict(ctx context.Context, topic string, version int, id int64) error {
	if version > itemEvents.SchemaVersion {
		c.log.WarnContext(ctx, "skipping event with newer schema",
			"topic", topic, "version", version, "item_id", id)
		return nil
	}
	if err := c.cache.Delete(ctx, id); err != nil {
		return fmt.Errorf("evict item %d on %s: %w", id, topic, err)
	}
	c.log.InfoContext(ctx, "cache evicted", "topic", topic, "item_id", id)
	return nil
}

// drop acks undecodable messages; retrying cannot fix them.
func (c *CacheInvalidator) drop(ctx context.Context, topic string, err error) error {
	c.log.ErrorContext(ctx, "dropping undecodable event", "topic", topic, "error", err)
	return nil
}
