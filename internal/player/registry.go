// internal/player/registry.go
package player

import (
	"fmt"
	"sync"

	"discord-music-bot/internal/models"

	"github.com/rs/zerolog/log"
)

// Registry owns the guild-to-session mapping. It creates sessions from
// persisted setups, tears them down on guild removal, and is the single
// source of truth for whether a guild has an active player.
type Registry struct {
	store    ConfigStore
	backend  Backend
	resolver ChannelResolver

	mu         sync.RWMutex
	sessions   map[string]*Session
	rehydrated bool
}

func NewRegistry(store ConfigStore, backend Backend, resolver ChannelResolver) *Registry {
	return &Registry{
		store:    store,
		backend:  backend,
		resolver: resolver,
		sessions: make(map[string]*Session),
	}
}

// RehydrateAll rebuilds sessions for every persisted setup. It runs once
// per process: the node emits ready again after a reconnect and a repeat
// call is a no-op. A guild whose setup no longer resolves is dropped
// from storage and skipped; the remaining guilds are still processed.
func (r *Registry) RehydrateAll() {
	r.mu.Lock()
	if r.rehydrated {
		r.mu.Unlock()
		return
	}
	r.rehydrated = true
	r.mu.Unlock()

	setups, err := r.store.AllGuildSetups()
	if err != nil {
		log.Error().Err(err).Msg("failed to load guild setups")
		return
	}

	restored := 0
	for _, setup := range setups {
		if _, err := r.CreateSession(setup); err != nil {
			log.Warn().Err(err).Str("guild_id", setup.GuildID).Msg("dropping stale guild setup")
			if err := r.store.DeleteGuildSetup(setup.GuildID); err != nil {
				log.Error().Err(err).Str("guild_id", setup.GuildID).Msg("failed to delete stale guild setup")
			}
			continue
		}
		restored++
	}

	log.Info().Int("guilds", restored).Msg("guild sessions rehydrated")
}

// CreateSession resolves the setup's channel and both messages, then
// creates the backend player. All-or-nothing: a session is either fully
// wired or not created at all.
func (r *Registry) CreateSession(setup models.GuildSetup) (*Session, error) {
	if !r.resolver.ChannelExists(setup.ChannelID) {
		return nil, fmt.Errorf("guild %s: %w", setup.GuildID, ErrChannelNotFound)
	}
	if !r.resolver.MessageExists(setup.ChannelID, setup.PlayerMessageID) {
		return nil, fmt.Errorf("guild %s: %w", setup.GuildID, ErrMessageNotFound)
	}
	if !r.resolver.MessageExists(setup.ChannelID, setup.QueueMessageID) {
		return nil, fmt.Errorf("guild %s: %w", setup.GuildID, ErrQueueMessageNotFound)
	}

	session := &Session{
		GuildID:         setup.GuildID,
		ChannelID:       setup.ChannelID,
		PlayerMessageID: setup.PlayerMessageID,
		QueueMessageID:  setup.QueueMessageID,
		Locale:          setup.Locale,
		Player:          r.backend.CreatePlayer(setup.GuildID),
	}

	r.mu.Lock()
	r.sessions[setup.GuildID] = session
	r.mu.Unlock()

	return session, nil
}

// DestroySession destroys the backend player and deletes the persisted
// setup. Destroying an absent session is not an error.
func (r *Registry) DestroySession(guildID string) error {
	r.mu.Lock()
	delete(r.sessions, guildID)
	r.mu.Unlock()

	r.backend.DestroyPlayer(guildID)

	if err := r.store.DeleteGuildSetup(guildID); err != nil {
		return fmt.Errorf("failed to delete guild setup: %w", err)
	}
	return nil
}

// DropSession is the self-healing path for stale persisted state: the
// setup row and in-memory session go away, but any backend player is
// left reachable for explicit cleanup on guild removal.
func (r *Registry) DropSession(guildID string) {
	r.mu.Lock()
	delete(r.sessions, guildID)
	r.mu.Unlock()

	if err := r.store.DeleteGuildSetup(guildID); err != nil {
		log.Error().Err(err).Str("guild_id", guildID).Msg("failed to delete stale guild setup")
	}
}

// Get looks a session up without creating one.
func (r *Registry) Get(guildID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[guildID]
	return session, ok
}
