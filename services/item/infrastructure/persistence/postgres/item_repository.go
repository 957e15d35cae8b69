package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ghuser/itemsapi/pkg/database"
	"github.com/ghuser/itemsapi/pkg/events"
	itemdomain "github.com/ghuser/itemsapi/services/item/domain"
	domainevents "github.com/ghuser/itemsapi/services/item/domain/events"
	"github.com/ghuser/itemsapi/services/item/domain/models"
)

const itemColumns = `id, name, description, created_at, updated_at`

const (
	listItemsSQL = `SELECT ` + itemColumns + ` FROM items ORDER BY id ASC`

	getItemSQL = `SELECT ` + itemColumns + ` FROM items WHERE id = $1`

	insertItemSQL = `INSERT INTO items (name, description) VALUES ($1, $2)
RETURNING ` + itemColumns

	// updated_at always moves forward, even when two updates land within
	// the clock resolution.
	updateItemSQL = `UPDATE items SET
	name        = CASE WHEN $2::boolean THEN $3::varchar ELSE name END,
	description = CASE WHEN $4::boolean THEN $5::text ELSE description END,
	updated_at  = GREATEST(now(), updated_at + interval '1 microsecond')
WHERE id = $1
RETURNING ` + itemColumns

	deleteItemSQL = `DELETE FROM items WHERE id = $1 RETURNING id`
)

// ItemRepository implements repositories.ItemRepository against PostgreSQL.
// Every operation is a single statement; mutations share their transaction
// with the outbox write of the matching domain event.
type ItemRepository struct {
	db  *database.Database
	bus *events.EventBus
}

// NewItemRepository returns an ItemRepository on the given pool. bus may be
// nil, in which case no events are written.
func NewItemRepository(db *database.Database, bus *events.EventBus) *ItemRepository {
	return &ItemRepository{db: db, bus: bus}
}

// List returns every item ordered by id.
func (r *ItemRepository) List(ctx context.Context) ([]*models.Item, error) {
	rows, err := r.db.DB().QueryContext(ctx, listItemsSQL)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	items := make([]*models.Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return items, nil
}

// GetByID returns the item or ErrItemNotFound.
func (r *ItemRepository) GetByID(ctx context.Context, id int64) (*models.Item, error) {
	item, err := scanItem(r.db.DB().QueryRowContext(ctx, getItemSQL, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, itemdomain.ErrItemNotFound
		}
		return nil, fmt.Errorf("query item %d: %w", id, err)
	}
	return item, nil
}

// Insert stores a new item and writes an item.created event.
func (r *ItemRepository) Insert(ctx context.Context, draft models.NewItemDraft) (*models.Item, error) {
	var item *models.Item
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		item, err = scanItem(tx.QueryRowContext(ctx, insertItemSQL, draft.Name.String(), draft.Description))
		if err != nil {
			if database.IsCheckViolation(err) {
				return itemdomain.NameRequired()
			}
			return fmt.Errorf("insert item: %w", err)
		}
		return r.publish(ctx, tx, domainevents.TopicItemCreated, domainevents.NewItemCreated(item))
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Update applies patch to the item and writes an item.updated event.
func (r *ItemRepository) Update(ctx context.Context, id int64, patch models.ItemPatch) (*models.Item, error) {
	var item *models.Item
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		item, err = scanItem(tx.QueryRowContext(ctx, updateItemSQL,
			id,
			patch.Name.Set, patch.Name.Value,
			patch.Description.Set, patch.Description.Value,
		))
		if err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				return itemdomain.ErrItemNotFound
			case database.IsCheckViolation(err):
				return itemdomain.NameRequired()
			}
			return fmt.Errorf("update item %d: %w", id, err)
		}
		return r.publish(ctx, tx, domainevents.TopicItemUpdated, domainevents.NewItemUpdated(item))
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Delete removes the item and writes an item.deleted event.
func (r *ItemRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		var deleted int64
		if err := tx.QueryRowContext(ctx, deleteItemSQL, id).Scan(&deleted); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return itemdomain.ErrItemNotFound
			}
			return fmt.Errorf("delete item %d: %w", id, err)
		}
		return r.publish(ctx, tx, domainevents.TopicItemDeleted, domainevents.NewItemDeleted(deleted))
	})
}

func (r *ItemRepository) publish(ctx context.Context, tx *sql.Tx, topic string, payload any) error {
	if r.bus == nil {
		return nil
	}
	msg, err := events.NewMessage(ctx, payload)
	if err != nil {
		return err
	}
	p, err := r.bus.NewTxPublisher(tx)
	if err != nil {
		return fmt.Errorf("create publisher: %w", err)
	}
	if err := p.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(s rowScanner) (*models.Item, error) {
	var (
		item models.Item
		name string
		desc sql.NullString
	)
	if err := s.Scan(&item.ID, &name, &desc, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return nil, err
	}
	item.Name = models.ItemName(name)
	if desc.Valid {
		item.Description = &desc.String
	}
	item.CreatedAt = item.CreatedAt.UTC()
	item.UpdatedAt = item.UpdatedAt.UTC()
	return &item, nil
}
