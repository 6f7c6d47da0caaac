// Package state provides a lightweight FSM/session manager for Telegram bots.
// Sessions live in process memory only and are keyed by user identity.
package state
