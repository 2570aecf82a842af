// internal/player/events.go
package player

import (
	"discord-music-bot/internal/lavalink"

	"github.com/rs/zerolog/log"
)

// EventHandler consumes the backend's typed event stream and drives the
// per-guild state transitions: node ready rehydrates sessions, a track
// start records history and resyncs both messages, a queue end
// disconnects voice and renders the idle state.
type EventHandler struct {
	registry *Registry
	backend  Backend
	history  HistoryStore
	syncer   *Syncer
}

func NewEventHandler(registry *Registry, backend Backend, history HistoryStore, syncer *Syncer) *EventHandler {
	return &EventHandler{
		registry: registry,
		backend:  backend,
		history:  history,
		syncer:   syncer,
	}
}

// Run consumes events until the channel closes. Events for one guild
// arrive in the order the node emitted them.
func (h *EventHandler) Run(events <-chan lavalink.Event) {
	for event := range events {
		switch e := event.(type) {
		case lavalink.NodeReadyEvent:
			log.Info().Str("session_id", e.SessionID).Bool("resumed", e.Resumed).Msg("audio node ready")
			h.registry.RehydrateAll()

		case lavalink.TrackStartEvent:
			h.onTrackStart(e)

		case lavalink.QueueEndEvent:
			h.onQueueEnd(e)
		}
	}
}

func (h *EventHandler) onTrackStart(e lavalink.TrackStartEvent) {
	log.Info().Str("guild_id", e.GuildID).Str("track", e.Track.Info.Title).Msg("track started")

	if err := h.history.AddHistory(e.GuildID, e.Track.Info.Author, e.Track.Info.Title, e.Track.Info.URI); err != nil {
		log.Error().Err(err).Str("guild_id", e.GuildID).Msg("failed to record history")
	}

	session, ok := h.registry.Get(e.GuildID)
	if !ok {
		return
	}
	session.LastPlayed = &e.Track

	track := e.Track
	h.syncer.SyncPlayer(session, &track)
	if handle, ok := h.backend.GetPlayer(e.GuildID); ok {
		h.syncer.SyncQueue(session, handle.Queue())
	}
}

func (h *EventHandler) onQueueEnd(e lavalink.QueueEndEvent) {
	log.Info().Str("guild_id", e.GuildID).Msg("queue ended, leaving voice")

	if err := h.backend.Disconnect(e.GuildID); err != nil {
		log.Warn().Err(err).Str("guild_id", e.GuildID).Msg("failed to leave voice channel")
	}

	if session, ok := h.registry.Get(e.GuildID); ok {
		h.syncer.SyncIdle(session)
	}
}
