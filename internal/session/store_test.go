package session

import (
	"fmt"
	"sync"
	"testing"
)

func TestStoreReadAfterWrite(t *testing.T) {
	store := NewStore()

	if _, ok := store.Get("s1"); ok {
		t.Error("Expected no overrides before Set")
	}

	store.Set("s1", Overrides{Host: "https://a.databricks.net", Token: "tok-a"})

	got, ok := store.Get("s1")
	if !ok {
		t.Fatal("Expected overrides after Set")
	}
	if got.Host != "https://a.databricks.net" || got.Token != "tok-a" {
		t.Errorf("Unexpected overrides: %+v", got)
	}
	if got.UpdatedAt.IsZero() {
		t.Error("UpdatedAt not stamped")
	}
}

func TestStoreSetReplaces(t *testing.T) {
	store := NewStore()
	store.Set("s1", Overrides{Host: "https://a.databricks.net", Catalog: "cat_a"})
	store.Set("s1", Overrides{Host: "https://b.databricks.net"})

	got, _ := store.Get("s1")
	if got.Host != "https://b.databricks.net" {
		t.Errorf("Host = %q, want replacement", got.Host)
	}
	// Set replaces wholesale, it does not merge
	if got.Catalog != "" {
		t.Errorf("Catalog survived replacement: %q", got.Catalog)
	}
}

func TestStoreDelete(t *testing.T) {
	store := NewStore()
	store.Set("s1", Overrides{Token: "tok"})
	store.Delete("s1")

	if _, ok := store.Get("s1"); ok {
		t.Error("Expected overrides gone after Delete")
	}
	// Deleting an absent session is a no-op
	store.Delete("never-set")
}

func TestStoreLen(t *testing.T) {
	store := NewStore()
	if store.Len() != 0 {
		t.Errorf("Len = %d, want 0", store.Len())
	}
	store.Set("a", Overrides{})
	store.Set("b", Overrides{})
	store.Set("a", Overrides{})
	if store.Len() != 2 {
		t.Errorf("Len = %d, want 2", store.Len())
	}
}

func TestStoreConcurrentAccess(t *testing.T) {
	store := NewStore()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("session-%d", n%10)
			store.Set(id, Overrides{Token: id})
			store.Get(id)
			store.Len()
		}(i)
	}
	wg.Wait()

	if store.Len() != 10 {
		t.Errorf("Len = %d, want 10", store.Len())
	}
}
