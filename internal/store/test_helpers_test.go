package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/organizer/internal/item"
	"github.com/roach88/organizer/internal/itemid"
)

const testManager = "organizer:test"

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, testManager)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func id(key string) itemid.ItemID {
	return itemid.LocalItemID(testManager, key)
}

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t.UTC()
}

// createTestEvent creates a one-hour event.
func createTestEvent(key, label, start string) item.Item {
	s := at(start)
	return item.Item{
		ID:           id(key),
		Type:         item.TypeEvent,
		DisplayLabel: label,
		Start:        s,
		End:          s.Add(time.Hour),
	}
}
