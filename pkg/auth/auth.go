// Package auth implements account registration and login on top of the
// datastore and the password derivation in pkg/crypto. The plain password
// never reaches the repository layer.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/NicolasHaas/gotalk/pkg/crypto"
	"github.com/NicolasHaas/gotalk/pkg/datastore"
	"github.com/NicolasHaas/gotalk/pkg/model"
)

// Service validates credentials against the account store.
type Service struct {
	store datastore.DataProviderFactory
}

func NewService(store datastore.DataProviderFactory) *Service {
	return &Service{store: store}
}

// Register creates a new account. Returns model.ErrAccountExists when the
// username is taken, and validation errors for empty or oversized fields.
func (s *Service) Register(ctx context.Context, username, password string) error {
	if err := model.ValidateUsername(username); err != nil {
		return err
	}
	if password == "" {
		return model.ErrPasswordEmpty
	}

	salt, hash, err := crypto.Derive(password)
	if err != nil {
		return fmt.Errorf("auth: derive password: %w", err)
	}

	// The existence check and the insert share one transaction so two
	// racing registrations cannot both succeed.
	tx, err := s.store.Tx(ctx)
	if err != nil {
		return fmt.Errorf("auth: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	existing, err := tx.GetAccount(username)
	if err != nil {
		return fmt.Errorf("auth: check account: %w", err)
	}
	if existing != nil {
		return model.ErrAccountExists
	}
	if err := tx.CreateAccount(username, salt, hash); err != nil {
		if errors.Is(err, model.ErrAccountExists) {
			return model.ErrAccountExists
		}
		return fmt.Errorf("auth: create account: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("auth: commit: %w", err)
	}
	return nil
}

// Authenticate reports whether the username/password pair is valid. Unknown
// usernames and wrong passwords are indistinguishable to callers; an error
// is returned only when the store itself fails.
func (s *Service) Authenticate(_ context.Context, username, password string) (bool, error) {
	account, err := s.store.NonTx().GetAccount(username)
	if err != nil {
		return false, fmt.Errorf("auth: get account: %w", err)
	}
	if account == nil {
		return false, nil
	}
	return crypto.Matches(password, account.PasswordSalt, account.PasswordHash), nil
}
