package account

import (
	"context"
	"errors"
	"testing"
)

func TestUpsertValueUniqueAcrossTypes(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	a := &Account{Email: "ada@example.com", PasswordHash: "hash", Active: true}
	if err := store.Accounts(ctx).Create(ctx, a); err != nil {
		t.Fatalf("create account: %v", err)
	}

	methods := store.LoginMethods(ctx)
	if _, err := methods.Upsert(ctx, a.ID, LoginTypeEmail, "ada@example.com"); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	// The same account cannot hold the value under a second type.
	if _, err := methods.Upsert(ctx, a.ID, LoginTypePhone, "ada@example.com"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	items, err := methods.ListByAccount(ctx, a.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected one binding, got %d", len(items))
	}

	// Replacing the owning binding of the same type is not a conflict.
	if _, err := methods.Upsert(ctx, a.ID, LoginTypeEmail, "ada@example.com"); err != nil {
		t.Fatalf("replace own binding: %v", err)
	}
}

func TestUpsertValueHeldByOtherAccount(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	first := &Account{Email: "ada@example.com", PasswordHash: "hash", Active: true}
	second := &Account{Email: "bob@example.com", PasswordHash: "hash", Active: true}
	for _, a := range []*Account{first, second} {
		if err := store.Accounts(ctx).Create(ctx, a); err != nil {
			t.Fatalf("create account: %v", err)
		}
	}

	methods := store.LoginMethods(ctx)
	if _, err := methods.Upsert(ctx, first.ID, LoginTypePhone, "+77001234567"); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if _, err := methods.Upsert(ctx, second.ID, LoginTypePhone, "+77001234567"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}
