package datastore_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/NicolasHaas/gotalk/pkg/datastore"
	"github.com/NicolasHaas/gotalk/pkg/model"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func NewTestSqlConn(t *testing.T) *datastore.ProviderFactory {
	t.Helper()

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")

	st, err := datastore.NewProviderFactory(dbPath)
	if err != nil {
		t.Fatalf("sql_test: failed to open db: %v", err)
	}

	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			fmt.Printf("Error closing database: %v\n", err)
		}
	})

	return st
}

func TestMigrateIdempotent(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")

	st, err := datastore.NewProviderFactory(dbPath)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Opening the same file again must not re-run or fail migrations.
	st, err = datastore.NewProviderFactory(dbPath)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestCreateAccount(t *testing.T) {
	t.Parallel()

	type tcase struct {
		username  string
		expectErr error
	}

	tcases := map[string]tcase{
		"simple": {
			username: "johndoe",
		},
		"empty_username": {
			username:  "",
			expectErr: model.ErrUsernameEmpty,
		},
		"too_long_username": {
			username:  strings.Repeat("a", 65),
			expectErr: model.ErrUsernameTooLong,
		},
	}

	fn := func(tc tcase) func(*testing.T) {
		return func(t *testing.T) {
			st := NewTestSqlConn(t)

			err := st.NonTx().CreateAccount(tc.username, "00ff", "aabb")
			if tc.expectErr != nil {
				if !errors.Is(err, tc.expectErr) {
					t.Fatalf("CreateAccount: expected %v, got %v", tc.expectErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateAccount: unexpected error: %v", err)
			}

			got, err := st.NonTx().GetAccount(tc.username)
			if err != nil {
				t.Fatalf("GetAccount: unexpected error: %v", err)
			}
			want := &model.Account{
				Username:     tc.username,
				PasswordSalt: "00ff",
				PasswordHash: "aabb",
			}
			if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(model.Account{}, "CreatedAt")); diff != "" {
				t.Errorf("GetAccount mismatch (-want +got):\n%s", diff)
			}
			if got.CreatedAt.IsZero() {
				t.Error("GetAccount: CreatedAt not set")
			}
		}
	}

	for name, tc := range tcases {
		t.Run(name, fn(tc))
	}
}

func TestCreateAccountDuplicate(t *testing.T) {
	st := NewTestSqlConn(t)

	if err := st.NonTx().CreateAccount("alice", "s1", "h1"); err != nil {
		t.Fatalf("first CreateAccount: %v", err)
	}
	err := st.NonTx().CreateAccount("alice", "s2", "h2")
	if !errors.Is(err, model.ErrAccountExists) {
		t.Fatalf("second CreateAccount: expected ErrAccountExists, got %v", err)
	}

	// The original credentials must be untouched.
	got, err := st.NonTx().GetAccount("alice")
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if got.PasswordSalt != "s1" || got.PasswordHash != "h1" {
		t.Errorf("GetAccount: credentials overwritten: %+v", got)
	}
}

func TestGetAccountMissing(t *testing.T) {
	st := NewTestSqlConn(t)

	got, err := st.NonTx().GetAccount("nobody")
	if err != nil {
		t.Fatalf("GetAccount: unexpected error: %v", err)
	}
	if got != nil {
		t.Fatalf("GetAccount: expected nil for unknown username, got %+v", got)
	}
}

func TestCreateAccountTx(t *testing.T) {
	st := NewTestSqlConn(t)
	ctx := context.Background()

	tx, err := st.Tx(ctx)
	if err != nil {
		t.Fatalf("Tx: %v", err)
	}
	if err := tx.CreateAccount("bob", "salt", "hash"); err != nil {
		t.Fatalf("CreateAccount in tx: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback: %v", err)
	}

	got, err := st.NonTx().GetAccount("bob")
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if got != nil {
		t.Fatal("GetAccount: rolled-back account is visible")
	}

	tx, err = st.Tx(ctx)
	if err != nil {
		t.Fatalf("Tx: %v", err)
	}
	if err := tx.CreateAccount("bob", "salt", "hash"); err != nil {
		t.Fatalf("CreateAccount in tx: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	got, err = st.NonTx().GetAccount("bob")
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if got == nil {
		t.Fatal("GetAccount: committed account missing")
	}
}

func TestSaveAndRecentMessages(t *testing.T) {
	st := NewTestSqlConn(t)

	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		m := &model.Message{
			Sender:    "alice",
			Content:   fmt.Sprintf("message %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := st.NonTx().SaveMessage(m); err != nil {
			t.Fatalf("SaveMessage(%d): %v", i, err)
		}
		if m.ID == 0 {
			t.Fatalf("SaveMessage(%d): ID not assigned", i)
		}
	}

	got, err := st.NonTx().RecentMessages(3)
	if err != nil {
		t.Fatalf("RecentMessages: %v", err)
	}

	want := []model.Message{
		{Sender: "alice", Content: "message 2", CreatedAt: base.Add(2 * time.Second)},
		{Sender: "alice", Content: "message 3", CreatedAt: base.Add(3 * time.Second)},
		{Sender: "alice", Content: "message 4", CreatedAt: base.Add(4 * time.Second)},
	}
	if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(model.Message{}, "ID")); diff != "" {
		t.Errorf("RecentMessages mismatch (-want +got):\n%s", diff)
	}

	for i := 1; i < len(got); i++ {
		if got[i].CreatedAt.Before(got[i-1].CreatedAt) {
			t.Errorf("RecentMessages: not ordered oldest first at index %d", i)
		}
	}
}

func TestRecentMessagesEmpty(t *testing.T) {
	st := NewTestSqlConn(t)

	got, err := st.NonTx().RecentMessages(20)
	if err != nil {
		t.Fatalf("RecentMessages: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("RecentMessages: expected empty, got %d", len(got))
	}
}

func TestSaveMessageInvalid(t *testing.T) {
	st := NewTestSqlConn(t)

	err := st.NonTx().SaveMessage(&model.Message{Sender: "alice", Content: "  "})
	if !errors.Is(err, model.ErrContentEmpty) {
		t.Fatalf("SaveMessage: expected ErrContentEmpty, got %v", err)
	}
}
