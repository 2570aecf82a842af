// internal/player/voice.go
package player

import (
	"github.com/rs/zerolog/log"
)

// Reconciler re-synchronizes player state with voice-channel reality:
// an out-of-band disconnect of the bot resets the guild to idle, and the
// bot leaves on its own when it ends up alone in a channel.
type Reconciler struct {
	registry *Registry
	backend  Backend
	syncer   *Syncer
	roster   VoiceRoster
}

func NewReconciler(registry *Registry, backend Backend, syncer *Syncer, roster VoiceRoster) *Reconciler {
	return &Reconciler{
		registry: registry,
		backend:  backend,
		syncer:   syncer,
		roster:   roster,
	}
}

// OnVoiceStateChange handles one membership change. Any change that is
// neither the bot losing its channel nor a human leaving the bot alone
// is ignored.
func (r *Reconciler) OnVoiceStateChange(guildID, userID, beforeChannelID, afterChannelID string) {
	if userID == r.roster.BotUserID() {
		if afterChannelID == "" {
			r.onBotDisconnected(guildID)
		}
		return
	}

	if beforeChannelID == "" || beforeChannelID == afterChannelID {
		return
	}

	botChannel, ok := r.roster.BotVoiceChannel(guildID)
	if !ok || botChannel != beforeChannelID {
		return
	}

	if r.roster.VoiceMemberCount(guildID, botChannel) <= 1 {
		log.Info().Str("guild_id", guildID).Msg("alone in voice channel, disconnecting")
		if err := r.backend.Disconnect(guildID); err != nil {
			log.Warn().Err(err).Str("guild_id", guildID).Msg("failed to leave voice channel")
		}
	}
}

// onBotDisconnected models a kick or other out-of-band disconnect: the
// queue is cleared so internal state matches reality again. Tracks other
// requesters queued are discarded with it, hence the warning.
func (r *Reconciler) onBotDisconnected(guildID string) {
	if handle, ok := r.backend.GetPlayer(guildID); ok {
		if dropped := len(handle.Queue()); dropped > 0 {
			log.Warn().Str("guild_id", guildID).Int("dropped", dropped).Msg("voice connection lost, discarding queued tracks")
		}
		if err := handle.Stop(); err != nil {
			log.Warn().Err(err).Str("guild_id", guildID).Msg("failed to stop player")
		}
	}

	if session, ok := r.registry.Get(guildID); ok {
		r.syncer.SyncIdle(session)
	}
}
