package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghuser/itemsapi/migrations/item"
	"github.com/ghuser/itemsapi/pkg/database"
	"github.com/ghuser/itemsapi/pkg/logger"
	"github.com/ghuser/itemsapi/pkg/migrator"
	itemdomain "github.com/ghuser/itemsapi/services/item/domain"
	"github.com/ghuser/itemsapi/services/item/domain/models"
)

// newTestRepository connects to TEST_DATABASE_URL, migrates and empties the
// items table. Tests using it are skipped when the variable is unset.
func newTestRepository(t *testing.T) *ItemRepository {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping integration tests")
	}

	ctx := context.Background()
	db, err := database.Open(ctx, url, database.DefaultPoolConfig, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, migrator.Up(ctx, db.DB(), item.FS, logger.Discard()))
	_, err = db.DB().ExecContext(ctx, "TRUNCATE items RESTART IDENTITY")
	require.NoError(t, err)

	return NewItemRepository(db, nil)
}

func strPtr(s string) *string { return &s }

func TestItemRepository_CreateThenGet(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	created, err := repo.Insert(ctx, models.NewItemDraft{Name: "Lamp", Description: strPtr("desk lamp")})
	require.NoError(t, err)
	assert.True(t, created.CreatedAt.Equal(created.UpdatedAt), "created_at must equal updated_at")

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ItemName("Lamp"), got.Name)
	require.NotNil(t, got.Description)
	assert.Equal(t, "desk lamp", *got.Description)
	assert.True(t, got.CreatedAt.Equal(got.UpdatedAt))
}

func TestItemRepository_PartialUpdate(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	created, err := repo.Insert(ctx, models.NewItemDraft{Name: "A", Description: strPtr("keep")})
	require.NoError(t, err)

	updated, err := repo.Update(ctx, created.ID, models.ItemPatch{Name: models.Some("B")})
	require.NoError(t, err)
	assert.Equal(t, models.ItemName("B"), updated.Name)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "keep", *updated.Description)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt), "updated_at must advance")

	again, err := repo.Update(ctx, created.ID, models.ItemPatch{})
	require.NoError(t, err)
	assert.True(t, again.UpdatedAt.After(updated.UpdatedAt), "updated_at must advance on every update")

	cleared, err := repo.Update(ctx, created.ID, models.ItemPatch{Description: models.Some[*string](nil)})
	require.NoError(t, err)
	assert.Nil(t, cleared.Description)
	assert.Equal(t, models.ItemName("B"), cleared.Name)
}

func TestItemRepository_NotFound(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, 999)
	assert.ErrorIs(t, err, itemdomain.ErrItemNotFound)

	_, err = repo.Update(ctx, 999, models.ItemPatch{Name: models.Some("x")})
	assert.ErrorIs(t, err, itemdomain.ErrItemNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, 999), itemdomain.ErrItemNotFound)
}

func TestItemRepository_DeleteTwice(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	created, err := repo.Insert(ctx, models.NewItemDraft{Name: "gone"})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, created.ID))
	assert.ErrorIs(t, repo.Delete(ctx, created.ID), itemdomain.ErrItemNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, created.ID), itemdomain.ErrItemNotFound)
}

func TestItemRepository_ListOrderedByID(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	for _, name := range []string{"c", "a", "b"} {
		_, err := repo.Insert(ctx, models.NewItemDraft{Name: models.ItemName(name)})
		require.NoError(t, err)
	}
	_, err := repo.Update(ctx, 1, models.ItemPatch{Name: models.Some("z")})
	require.NoError(t, err)

	items, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 3)
	for i := 1; i < len(items); i++ {
		assert.Less(t, items[i-1].ID, items[i].ID)
	}
}

func TestItemRepository_EmptyNameRejectedByStorage(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.Insert(ctx, models.NewItemDraft{Name: ""})
	assert.ErrorIs(t, err, itemdomain.ErrInvalidItemName)

	items, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}
