package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	pkgcache "github.com/ghuser/itemsapi/pkg/cache"
	"github.com/ghuser/itemsapi/pkg/logger"
	"github.com/ghuser/itemsapi/services/item/domain/models"
	"github.com/ghuser/itemsapi/services/item/domain/repositories"
	domainsvcs "github.com/ghuser/itemsapi/services/item/domain/services"
)

// ItemCache is the subset of the Redis item cache the service uses.
type ItemCache interface {
	Get(ctx context.Context, id int64) (*pkgcache.CachedItem, error)
	Set(ctx context.Context, item *pkgcache.CachedItem) error
	Delete(ctx context.Context, id int64) error
}

// ItemService runs domain validation in front of the repository and keeps
// the read cache in step with writes. Event publishing happens in the
// repository (outbox). A nil cache disables caching.
type ItemService struct {
	repo  repositories.ItemRepository
	cache ItemCache
	log   logger.Logger
}

// NewItemService returns an ItemService wired with the given repository and cache.
func NewItemService(repo repositories.ItemRepository, cache ItemCache, log logger.Logger) *ItemService {
	return &ItemService{repo: repo, cache: cache, log: log}
}

// List returns all items ordered by id. Lists are never cached.
func (s *ItemService) List(ctx context.Context) ([]*models.Item, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

// GetByID reads through the cache. Cache failures are logged and fall back
// to the database.
func (s *ItemService) GetByID(ctx context.Context, id int64) (*models.Item, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, id)
		switch {
		case err == nil:
			return fromCache(cached), nil
		case !errors.Is(err, redis.Nil):
			s.log.WarnContext(ctx, "item cache read failed", "item_id", id, "error", err)
		}
	}

	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get item %d: %w", id, err)
	}

	s.store(ctx, item)
	return item, nil
}

// Create validates and inserts a new item.
func (s *ItemService) Create(ctx context.Context, name string, description *string) (*models.Item, error) {
	draft, err := models.NewDraft(name, description)
	if err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}
	if err := domainsvcs.ValidateDraft(draft); err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}

	item, err := s.repo.Insert(ctx, draft)
	if err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}

	s.store(ctx, item)
	return item, nil
}

// Update applies a partial update and evicts the cached copy.
func (s *ItemService) Update(ctx context.Context, id int64, patch models.ItemPatch) (*models.Item, error) {
	if err := domainsvcs.ValidatePatch(patch); err != nil {
		return nil, fmt.Errorf("update item %d: %w", id, err)
	}

	item, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("update item %d: %w", id, err)
	}

	s.evict(ctx, id)
	return item, nil
}

// Delete removes an item and evicts the cached copy. Missing items yield
// domain.ErrItemNotFound.
func (s *ItemService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete item %d: %w", id, err)
	}
	s.evict(ctx, id)
	return nil
}

func (s *ItemService) store(ctx context.Context, item *models.Item) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, ToCached(item)); err != nil {
		s.log.WarnContext(ctx, "item cache write failed", "item_id", item.ID, "error", err)
	}
}

func (s *ItemService) evict(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, id); err != nil {
		s.log.WarnContext(ctx, "item cache evict failed", "item_id", id, "error", err)
	}
}

// ToCached converts a domain item to its cache representation.
func ToCached(item *models.Item) *pkgcache.CachedItem {
	return &pkgcache.CachedItem{
		ID:          item.ID,
		Name:        item.Name.String(),
		Description: item.Description,
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}
}

func fromCache(c *pkgcache.CachedItem) *models.Item {
	return &models.Item{
		ID:          c.ID,
		Name:        models.ItemName(c.Name),
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
