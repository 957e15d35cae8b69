// Package memory is an in-process ItemRepository for tests. It mirrors the
// storage rules of the postgres package: ids ascend from 1, created_at
// equals updated_at on insert and updated_at strictly advances on update.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	itemdomain "github.com/ghuser/itemsapi/services/item/domain"
	"github.com/ghuser/itemsapi/services/item/domain/models"
)

// ItemRepository is safe for concurrent use.
type ItemRepository struct {
	mu     sync.Mutex
	items  map[int64]models.Item
	nextID int64
	now    func() time.Time

	// Err, when set, is returned by every call.
	Err error
}

// NewItemRepository returns an empty repository.
func NewItemRepository() *ItemRepository {
	return &ItemRepository{
		items:  make(map[int64]models.Item),
		nextID: 1,
		now:    func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

func (r *ItemRepository) List(_ context.Context) ([]*models.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}

	out := make([]*models.Item, 0, len(r.items))
	for _, it := range r.items {
		out = append(out, clone(it))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *ItemRepository) GetByID(_ context.Context, id int64) (*models.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}

	it, ok := r.items[id]
	if !ok {
		return nil, itemdomain.ErrItemNotFound
	}
	return clone(it), nil
}

func (r *ItemRepository) Insert(_ context.Context, draft models.NewItemDraft) (*models.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	if draft.Name == "" {
		return nil, itemdomain.NameRequired()
	}

	now := r.now()
	it := models.Item{
		ID:          r.nextID,
		Name:        draft.Name,
		Description: copyString(draft.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.items[it.ID] = it
	r.nextID++
	return clone(it), nil
}

func (r *ItemRepository) Update(_ context.Context, id int64, patch models.ItemPatch) (*models.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}

	it, ok := r.items[id]
	if !ok {
		return nil, itemdomain.ErrItemNotFound
	}
	it = patch.Apply(it)
	it.Description = copyString(it.Description)

	next := r.now()
	if floor := it.UpdatedAt.Add(time.Microsecond); next.Before(floor) {
		next = floor
	}
	it.UpdatedAt = next

	r.items[id] = it
	return clone(it), nil
}

func (r *ItemRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}

	if _, ok := r.items[id]; !ok {
		return itemdomain.ErrItemNotFound
	}
	delete(r.items, id)
	return nil
}

func clone(it models.Item) *models.Item {
	it.Description = copyString(it.Description)
	return &it
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
