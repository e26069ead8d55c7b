package dashboard

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/employeevirtual/backend/internal/storage/database"
	"github.com/employeevirtual/backend/internal/storage/models"
)

type fakeCache struct {
	entries  map[string][]byte
	getCalls int
	setCalls int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string][]byte{}}
}

func (f *fakeCache) GetUserStats(ctx context.Context, userID string, stats interface{}) (bool, error) {
	f.getCalls++
	data, ok := f.entries[userID]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, stats)
}

func (f *fakeCache) SetUserStats(ctx context.Context, userID string, stats interface{}, ttl time.Duration) error {
	f.setCalls++
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	f.entries[userID] = data
	return nil
}

func newTestStore(t *testing.T) *database.Client {
	t.Helper()

	store, err := database.NewClient(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if err := store.Migrate(); err != nil {
		t.Fatalf("failed to migrate test store: %v", err)
	}
	return store
}

func seed(t *testing.T, store *database.Client, userID string) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	for i := 0; i < 2; i++ {
		agent := &models.Agent{
			ID: uuid.NewString(), UserID: userID, Name: "a",
			Status: models.AgentActive, CreatedAt: now, UpdatedAt: now,
		}
		if err := store.CreateAgent(ctx, agent); err != nil {
			t.Fatalf("seed agent failed: %v", err)
		}
	}
	file := &models.File{
		ID: uuid.NewString(), UserID: userID, Name: "f", Size: 1024,
		Status: models.FileUploaded, CreatedAt: now, UpdatedAt: now,
	}
	if err := store.CreateFile(ctx, file); err != nil {
		t.Fatalf("seed file failed: %v", err)
	}
}

func TestStatsCountsOwnedRows(t *testing.T) {
	store := newTestStore(t)
	seed(t, store, "user-1")
	seed(t, store, "user-2")

	service := NewService(store, nil, time.Minute)

	stats, err := service.Stats(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}

	if stats.Agents != 2 || stats.Files != 1 || stats.StorageBytes != 1024 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if stats.Flows != 0 || stats.ChatSessions != 0 {
		t.Errorf("expected zero counts for empty domains: %+v", stats)
	}
}

func TestStatsUsesCache(t *testing.T) {
	store := newTestStore(t)
	seed(t, store, "user-1")

	cache := newFakeCache()
	service := NewService(store, cache, time.Minute)
	ctx := context.Background()

	first, err := service.Stats(ctx, "user-1")
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if cache.setCalls != 1 {
		t.Errorf("expected cache write, got %d", cache.setCalls)
	}

	// A second call must come from the cache even after new rows appear.
	seed(t, store, "user-1")
	second, err := service.Stats(ctx, "user-1")
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if second.Agents != first.Agents {
		t.Errorf("expected cached value, got %+v", second)
	}
	if cache.getCalls != 2 {
		t.Errorf("expected cache lookups, got %d", cache.getCalls)
	}
}
