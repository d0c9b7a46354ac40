package datastore_test

import (
	"errors"
	"testing"
	"time"

	"github.com/NicolasHaas/gotalk/pkg/datastore"
	"github.com/NicolasHaas/gotalk/pkg/model"

	"github.com/google/go-cmp/cmp"
)

func TestMemoryStoreMirrorsSQL(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	st := datastore.NewMemoryWithClock(func() time.Time { return now })

	if err := st.NonTx().CreateAccount("alice", "salt", "hash"); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	err := st.NonTx().CreateAccount("alice", "other", "other")
	if !errors.Is(err, model.ErrAccountExists) {
		t.Fatalf("duplicate CreateAccount: expected ErrAccountExists, got %v", err)
	}
	err = st.NonTx().CreateAccount("", "s", "h")
	if !errors.Is(err, model.ErrUsernameEmpty) {
		t.Fatalf("empty CreateAccount: expected ErrUsernameEmpty, got %v", err)
	}

	got, err := st.NonTx().GetAccount("alice")
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	want := &model.Account{Username: "alice", PasswordSalt: "salt", PasswordHash: "hash", CreatedAt: now}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("GetAccount mismatch (-want +got):\n%s", diff)
	}

	missing, err := st.NonTx().GetAccount("nobody")
	if err != nil || missing != nil {
		t.Fatalf("GetAccount(nobody) = %+v, %v; want nil, nil", missing, err)
	}
}

func TestMemoryStoreMessages(t *testing.T) {
	st := datastore.NewMemory()

	for _, content := range []string{"one", "two", "three"} {
		if err := st.NonTx().SaveMessage(&model.Message{Sender: "bob", Content: content}); err != nil {
			t.Fatalf("SaveMessage(%q): %v", content, err)
		}
	}

	got, err := st.NonTx().RecentMessages(2)
	if err != nil {
		t.Fatalf("RecentMessages: %v", err)
	}
	if len(got) != 2 || got[0].Content != "two" || got[1].Content != "three" {
		t.Fatalf("RecentMessages: expected [two three], got %+v", got)
	}

	all, err := st.NonTx().RecentMessages(50)
	if err != nil {
		t.Fatalf("RecentMessages: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("RecentMessages: expected 3, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].ID <= all[i-1].ID {
			t.Errorf("RecentMessages: IDs not increasing at %d", i)
		}
	}
}
