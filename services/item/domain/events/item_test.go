package events_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ghuser/itemsapi/services/item/domain/events"
	"github.com/ghuser/itemsapi/services/item/domain/models"
)

func sampleItem() *models.Item {
	desc := "desk lamp"
	ts := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	return &models.Item{ID: 42, Name: "Lamp", Description: &desc, CreatedAt: ts, UpdatedAt: ts}
}

func TestNewItemCreated(t *testing.T) {
	evt := events.NewItemCreated(sampleItem())

	if evt.EventID == uuid.Nil {
		t.Fatal("expected a generated event id")
	}
	if evt.Version != events.SchemaVersion {
		t.Errorf("Version: got %d, want %d", evt.Version, events.SchemaVersion)
	}
	if evt.ItemID != 42 || evt.Name != "Lamp" {
		t.Errorf("unexpected snapshot: %+v", evt.ItemSnapshot)
	}
	if evt.OccurredAt.IsZero() {
		t.Error("expected OccurredAt to be set")
	}
}

func TestItemEvents_FlatJSONFields(t *testing.T) {
	data, err := json.Marshal(events.NewItemUpdated(sampleItem()))
	if err != nil {
		t.Fatalf("json.Marshal failed: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal to map failed: %v", err)
	}
	for _, field := range []string{"event_id", "version", "occurred_at", "item_id", "name", "description", "created_at", "updated_at"} {
		if _, ok := raw[field]; !ok {
			t.Errorf("expected JSON field %q not found in: %s", field, data)
		}
	}
}

func TestItemSnapshot_Item(t *testing.T) {
	src := sampleItem()
	got := events.NewItemUpdated(src).Item()

	if got.ID != src.ID || got.Name != src.Name || *got.Description != *src.Description {
		t.Fatalf("unexpected item: %+v", got)
	}
	if !got.UpdatedAt.Equal(src.UpdatedAt) {
		t.Fatalf("UpdatedAt: got %v, want %v", got.UpdatedAt, src.UpdatedAt)
	}
}

func TestTopics(t *testing.T) {
	topics := map[string]string{
		events.TopicItemCreated: "item.created",
		events.TopicItemUpdated: "item.updated",
		events.TopicItemDeleted: "item.deleted",
	}
	for got, want := range topics {
		if got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	}
}
