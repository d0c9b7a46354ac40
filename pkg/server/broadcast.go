package server

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/NicolasHaas/gotalk/pkg/datastore"
	"github.com/NicolasHaas/gotalk/pkg/model"
)

// Dispatcher persists a message and fans it out to a registry snapshot.
type Dispatcher struct {
	store    datastore.DataStore
	registry *Registry
	metrics  *Metrics
}

func NewDispatcher(store datastore.DataStore, registry *Registry, metrics *Metrics) *Dispatcher {
	return &Dispatcher{store: store, registry: registry, metrics: metrics}
}

// Broadcast saves (sender, content, now) and delivers "[sender] content" to
// every registered session, the sender included. Persistence comes first: a
// store failure aborts the whole broadcast and nobody receives the line.
// A write failure to an individual session only skips that session — its
// own engine notices the dead connection on the next read and tears down.
func (d *Dispatcher) Broadcast(sender, content string) error {
	msg := &model.Message{
		Sender:    sender,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if err := d.store.SaveMessage(msg); err != nil {
		return fmt.Errorf("broadcast: %w", err)
	}

	line := fmt.Sprintf("[%s] %s", sender, content)
	for _, sess := range d.registry.Snapshot() {
		if err := sess.WriteLine(line); err != nil {
			slog.Debug("broadcast write failed", "session", sess.ID, "err", err)
		}
	}

	d.metrics.MessagesBroadcast.Add(1)
	return nil
}
