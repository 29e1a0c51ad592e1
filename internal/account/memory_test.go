package account

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestMemoryStoreCreateAndFind(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	id, err := store.Create(ctx, NewAccount{Username: "alice", Email: "alice@example.com", PasswordHash: "hash"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if id == "" {
		t.Fatal("expected store-assigned id")
	}

	for name, find := range map[string]func() (*Account, error){
		"id":       func() (*Account, error) { return store.FindByID(ctx, id) },
		"username": func() (*Account, error) { return store.FindByUsername(ctx, "alice") },
		"email":    func() (*Account, error) { return store.FindByEmail(ctx, "alice@example.com") },
	} {
		acc, err := find()
		if err != nil {
			t.Fatalf("find by %s returned error: %v", name, err)
		}
		if acc == nil || acc.ID != id || acc.PasswordHash != "hash" {
			t.Fatalf("find by %s returned %#v", name, acc)
		}
	}

	missing, err := store.FindByUsername(ctx, "bob")
	if err != nil || missing != nil {
		t.Fatalf("expected (nil, nil) for missing account, got (%#v, %v)", missing, err)
	}
	missing, err = store.FindByID(ctx, "")
	if err != nil || missing != nil {
		t.Fatalf("expected (nil, nil) for empty id, got (%#v, %v)", missing, err)
	}
}

func TestMemoryStoreDuplicateKeys(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if _, err := store.Create(ctx, NewAccount{Username: "alice", Email: "alice@example.com"}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	_, err := store.Create(ctx, NewAccount{Username: "alice", Email: "other@example.com"})
	var dup *DuplicateKeyError
	if !errors.As(err, &dup) || dup.Field != FieldUsername {
		t.Fatalf("expected username duplicate, got %v", err)
	}

	_, err = store.Create(ctx, NewAccount{Username: "alice2", Email: "alice@example.com"})
	if !errors.Is(err, ErrDuplicateKey) || !errors.As(err, &dup) || dup.Field != FieldEmail {
		t.Fatalf("expected email duplicate, got %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("expected one account, got %d", store.Len())
	}
}

func TestMemoryStoreConcurrentCreateSameEmail(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.Create(ctx, NewAccount{Username: fmt.Sprintf("user%d", i), Email: "same@example.com"})
			if err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if created != 1 {
		t.Fatalf("exactly one concurrent create should win, got %d", created)
	}
}

func TestNormalize(t *testing.T) {
	if got := NormalizeEmail("  Alice@Example.COM "); got != "alice@example.com" {
		t.Fatalf("NormalizeEmail = %q", got)
	}
	if got := NormalizeUsername(" Alice "); got != "Alice" {
		t.Fatalf("NormalizeUsername = %q", got)
	}
}
