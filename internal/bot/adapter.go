// internal/bot/adapter.go
package bot

import (
	"discord-music-bot/internal/lavalink"
	"discord-music-bot/internal/player"

	"github.com/bwmarrin/discordgo"
)

// Backend adapts the concrete lavalink client to the player core's
// Backend interface (the handle methods return interface types there).
type Backend struct {
	*lavalink.Client
}

func (b Backend) CreatePlayer(guildID string) player.Handle {
	return b.Client.CreatePlayer(guildID)
}

func (b Backend) GetPlayer(guildID string) (player.Handle, bool) {
	handle, ok := b.Client.GetPlayer(guildID)
	if !ok {
		return nil, false
	}
	return handle, true
}

// Resolver checks channel and message existence against the gateway,
// falling back to REST for messages the state cache never saw.
type Resolver struct {
	session *discordgo.Session
}

func NewResolver(session *discordgo.Session) *Resolver {
	return &Resolver{session: session}
}

func (r *Resolver) ChannelExists(channelID string) bool {
	if _, err := r.session.State.Channel(channelID); err == nil {
		return true
	}
	_, err := r.session.Channel(channelID)
	return err == nil
}

func (r *Resolver) MessageExists(channelID, messageID string) bool {
	_, err := r.session.ChannelMessage(channelID, messageID)
	return err == nil
}

// Roster exposes gateway voice state to the reconciler.
type Roster struct {
	session *discordgo.Session
}

func NewRoster(session *discordgo.Session) *Roster {
	return &Roster{session: session}
}

func (r *Roster) BotUserID() string {
	return r.session.State.User.ID
}

func (r *Roster) BotVoiceChannel(guildID string) (string, bool) {
	guild, err := r.session.State.Guild(guildID)
	if err != nil {
		return "", false
	}
	for _, vs := range guild.VoiceStates {
		if vs.UserID == r.session.State.User.ID && vs.ChannelID != "" {
			return vs.ChannelID, true
		}
	}
	return "", false
}

func (r *Roster) VoiceMemberCount(guildID, channelID string) int {
	guild, err := r.session.State.Guild(guildID)
	if err != nil {
		return 0
	}
	count := 0
	for _, vs := range guild.VoiceStates {
		if vs.ChannelID == channelID {
			count++
		}
	}
	return count
}
