// internal/player/session.go
package player

import (
	"context"

	"discord-music-bot/internal/lavalink"
	"discord-music-bot/internal/models"
)

// Session is the in-memory bundle for one guild with an active audio
// connection: channel and message references resolved from the persisted
// setup, plus the backend player handle. Sessions are owned exclusively
// by the Registry and rebuilt from storage on restart.
type Session struct {
	GuildID         string
	ChannelID       string
	PlayerMessageID string
	QueueMessageID  string
	Locale          string
	Player          Handle
	LastPlayed      *lavalink.Track
}

// Handle is the per-guild player handle the core mutates the queue
// through. Implemented by lavalink.Player.
type Handle interface {
	Enqueue(tracks ...lavalink.Track)
	Queue() []lavalink.Track
	Current() *lavalink.Track
	IsPlaying() bool
	PlayNext() (bool, error)
	Skip() error
	Stop() error
	ClearQueue()
}

// Backend is the audio-node client the core depends on.
type Backend interface {
	Search(ctx context.Context, identifier string) (*lavalink.LoadResult, error)
	CreatePlayer(guildID string) Handle
	GetPlayer(guildID string) (Handle, bool)
	DestroyPlayer(guildID string)
	Connect(guildID, channelID string) error
	Disconnect(guildID string) error
}

// ConfigStore persists the per-guild music-channel setup. Only the
// methods the core actually calls are required here; the concrete store
// has more.
type ConfigStore interface {
	AllGuildSetups() ([]models.GuildSetup, error)
	DeleteGuildSetup(guildID string) error
}

// HistoryStore records played tracks.
type HistoryStore interface {
	AddHistory(guildID, author, title, uri string) error
	GetHistory(guildID string) ([]models.HistoryEntry, error)
}

// ChannelResolver checks that the Discord resources a setup points at
// still exist. Implemented by the bot glue over the gateway state.
type ChannelResolver interface {
	ChannelExists(channelID string) bool
	MessageExists(channelID, messageID string) bool
}

// Presenter re-renders the two persistent messages for the current
// state. A nil track means nothing is playing. Implementations report
// a stale message id as ErrMessageNotFound.
type Presenter interface {
	RenderPlayer(session *Session, track *lavalink.Track) error
	RenderQueue(session *Session, queue []lavalink.Track) error
}

// VoiceRoster exposes the gateway voice state the reconciler needs.
type VoiceRoster interface {
	BotUserID() string
	BotVoiceChannel(guildID string) (string, bool)
	VoiceMemberCount(guildID, channelID string) int
}
