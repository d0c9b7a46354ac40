package datastore

import (
	"context"

	"github.com/NicolasHaas/gotalk/pkg/model"
)

type DataProviderFactory interface {
	NonTx() DataStore
	Tx(context.Context) (DataStoreTx, error)
}

type DataStoreTx interface {
	DataStore
	Rollback() error
	Commit() error
}

// DataStore defines the persistence interface for all GoTalk entities.
// Implementations include the default SQLite store and the in-memory store
// used by tests; any other backend can be plugged in the same way.
type DataStore interface {
	ConfigProvider

	AccountReadProvider
	AccountWriteProvider

	MessageReadProvider
	MessageWriteProvider
}

// Compile-time check: *ProviderFactory implements DataProviderFactory.
var _ DataProviderFactory = (*ProviderFactory)(nil)

type ConfigProvider interface {
	Close() error
}

type AccountReadProvider interface {
	// GetAccount returns the stored account, or (nil, nil) when the
	// username is unknown.
	GetAccount(username string) (*model.Account, error)
}

type AccountWriteProvider interface {
	// CreateAccount stores a new account with its derived credential pair.
	// Returns model.ErrAccountExists (wrapped) when the username is taken.
	CreateAccount(username, passwordSalt, passwordHash string) error
}

type MessageReadProvider interface {
	// RecentMessages returns at most limit messages, oldest first.
	RecentMessages(limit int) ([]model.Message, error)
}

type MessageWriteProvider interface {
	// SaveMessage persists the message and fills in its assigned ID.
	SaveMessage(message *model.Message) error
}
