// internal/player/resync.go
package player

import (
	"errors"

	"discord-music-bot/internal/lavalink"

	"github.com/rs/zerolog/log"
)

// Syncer pushes the current truth to a guild's two persistent messages.
// Every call is idempotent: it renders the state it is given, nothing
// more. A render that hits a deleted message is not retried; the stale
// setup is dropped through the registry's self-healing path.
type Syncer struct {
	registry  *Registry
	presenter Presenter
}

func NewSyncer(registry *Registry, presenter Presenter) *Syncer {
	return &Syncer{registry: registry, presenter: presenter}
}

// SyncPlayer re-renders the now-playing message. A nil track renders the
// idle placeholder with disabled controls.
func (s *Syncer) SyncPlayer(session *Session, track *lavalink.Track) {
	s.handle(session, s.presenter.RenderPlayer(session, track))
}

// SyncQueue re-renders the queue message.
func (s *Syncer) SyncQueue(session *Session, queue []lavalink.Track) {
	s.handle(session, s.presenter.RenderQueue(session, queue))
}

// SyncIdle forces both messages to the idle/empty rendering.
func (s *Syncer) SyncIdle(session *Session) {
	s.SyncPlayer(session, nil)
	s.SyncQueue(session, nil)
}

func (s *Syncer) handle(session *Session, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, ErrMessageNotFound) {
		log.Warn().Str("guild_id", session.GuildID).Msg("persistent message gone, dropping guild setup")
		s.registry.DropSession(session.GuildID)
		return
	}
	log.Error().Err(err).Str("guild_id", session.GuildID).Msg("failed to resync message")
}
