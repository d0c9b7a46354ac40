package server

import (
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"
)

// Metrics tracks server runtime statistics.
// All counters use atomic operations for lock-free concurrent access.
type Metrics struct {
	startTime time.Time

	// Connection counters
	TotalConnections  atomic.Int64 // lifetime TCP connections accepted
	ActiveConnections atomic.Int64 // current open connections
	TotalDisconnects  atomic.Int64 // total client disconnects (clean + unclean)

	// Auth counters
	SuccessfulAuths atomic.Int64 // successful logins
	FailedAuths     atomic.Int64 // rejected logins
	AccountsCreated atomic.Int64 // accounts registered during this run

	// Chat counters
	MessagesBroadcast atomic.Int64 // messages persisted and fanned out
}

// NewMetrics creates a new Metrics instance with the start time set to now.
func NewMetrics() *Metrics {
	return &Metrics{
		startTime: time.Now(),
	}
}

// MetricsSnapshot is a point-in-time view of all metrics as a serializable
// struct.
type MetricsSnapshot struct {
	Uptime        string `json:"uptime"`
	UptimeSeconds int64  `json:"uptime_seconds"`

	ActiveConnections int64 `json:"active_connections"`
	TotalConnections  int64 `json:"total_connections"`
	TotalDisconnects  int64 `json:"total_disconnects"`

	SuccessfulAuths int64 `json:"successful_auths"`
	FailedAuths     int64 `json:"failed_auths"`
	AccountsCreated int64 `json:"accounts_created"`

	MessagesBroadcast int64 `json:"messages_broadcast"`
}

// Snapshot returns a read-consistent snapshot of all metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	uptime := time.Since(m.startTime)
	return MetricsSnapshot{
		Uptime:            uptime.Truncate(time.Second).String(),
		UptimeSeconds:     int64(uptime.Seconds()),
		ActiveConnections: m.ActiveConnections.Load(),
		TotalConnections:  m.TotalConnections.Load(),
		TotalDisconnects:  m.TotalDisconnects.Load(),
		SuccessfulAuths:   m.SuccessfulAuths.Load(),
		FailedAuths:       m.FailedAuths.Load(),
		AccountsCreated:   m.AccountsCreated.Load(),
		MessagesBroadcast: m.MessagesBroadcast.Load(),
	}
}

// LogSummary writes the current snapshot to the default logger.
func (m *Metrics) LogSummary() {
	snap := m.Snapshot()
	data, err := json.Marshal(snap)
	if err != nil {
		slog.Error("metrics snapshot marshal failed", "err", err)
		return
	}
	slog.Info("metrics", "snapshot", string(data))
}

// StartPeriodicLog logs a metrics summary every interval until done closes.
func (m *Metrics) StartPeriodicLog(interval time.Duration, done <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.LogSummary()
			case <-done:
				return
			}
		}
	}()
}
