// Package model defines the core domain types for GoTalk: accounts,
// chat messages, and the per-connection session state machine.
package model

// SystemSender is the sender name used for join/leave notices and other
// server-generated broadcasts.
const SystemSender = "SYSTEM"
