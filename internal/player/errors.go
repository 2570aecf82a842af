// internal/player/errors.go
package player

import "errors"

// Setup-integrity errors: persisted configuration points at a Discord
// resource that no longer exists. Each one triggers deletion of the
// offending guild setup instead of endless retries.
var (
	ErrChannelNotFound      = errors.New("configured music channel not found")
	ErrMessageNotFound      = errors.New("player message not found")
	ErrQueueMessageNotFound = errors.New("queue message not found")
)

// Per-request outcomes reported to the requester. They never affect
// other guilds' sessions.
var (
	ErrBackendLoad      = errors.New("audio node could not load the query")
	ErrNoResults        = errors.New("no tracks matched the query")
	ErrNoActivePlayer   = errors.New("no active player for guild")
	ErrSelectionExpired = errors.New("track selection expired")
)
