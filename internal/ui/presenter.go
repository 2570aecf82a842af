// internal/ui/presenter.go
package ui

import (
	"errors"
	"fmt"

	"discord-music-bot/internal/lavalink"
	"discord-music-bot/internal/player"

	"github.com/bwmarrin/discordgo"
)

// MessageEditor is the single rendering primitive the presenter needs:
// replace a message's embed and components by channel and message id.
type MessageEditor interface {
	EditMessage(channelID, messageID string, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) error
}

// Presenter renders the two persistent messages for the current player
// state. It satisfies player.Presenter.
type Presenter struct {
	editor MessageEditor
}

func NewPresenter(editor MessageEditor) *Presenter {
	return &Presenter{editor: editor}
}

// RenderPlayer re-renders the now-playing message. A nil track renders
// the idle placeholder with the skip/disconnect buttons disabled.
func (p *Presenter) RenderPlayer(session *player.Session, track *lavalink.Track) error {
	embed := NothingPlayingEmbed(session.Locale)
	state := StateIdle
	if track != nil {
		embed = NowPlayingEmbed(*track, session.Locale)
		state = StatePlaying
	}

	return p.editor.EditMessage(session.ChannelID, session.PlayerMessageID, embed, PlayerControls(state, session.Locale))
}

// RenderQueue re-renders the queue message.
func (p *Presenter) RenderQueue(session *player.Session, queue []lavalink.Track) error {
	return p.editor.EditMessage(session.ChannelID, session.QueueMessageID, QueueEmbed(queue, session.Locale), QueueControls(session.Locale))
}

// DiscordEditor edits messages through the gateway session and maps a
// stale message or channel id to player.ErrMessageNotFound.
type DiscordEditor struct {
	session *discordgo.Session
}

func NewDiscordEditor(session *discordgo.Session) *DiscordEditor {
	return &DiscordEditor{session: session}
}

func (e *DiscordEditor) EditMessage(channelID, messageID string, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) error {
	_, err := e.session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    channelID,
		ID:         messageID,
		Embeds:     &[]*discordgo.MessageEmbed{embed},
		Components: &components,
	})
	if err == nil {
		return nil
	}

	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Message != nil {
		switch restErr.Message.Code {
		case discordgo.ErrCodeUnknownMessage, discordgo.ErrCodeUnknownChannel:
			return fmt.Errorf("message %s in channel %s: %w", messageID, channelID, player.ErrMessageNotFound)
		}
	}

	return fmt.Errorf("failed to edit message %s: %w", messageID, err)
}
