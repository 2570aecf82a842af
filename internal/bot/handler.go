// internal/bot/handler.go
package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"discord-music-bot/internal/database"
	"discord-music-bot/internal/player"
	"discord-music-bot/internal/ui"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

const (
	modalAddID      = "modal_add"
	modalQueryInput = "track_query"
	selectPrefix    = "track_select:"

	noticeTTL = 10 * time.Second
)

// Handler wires Discord gateway events to the player core.
type Handler struct {
	session    *discordgo.Session
	db         *database.DB
	registry   *player.Registry
	queue      *player.QueueController
	reconciler *player.Reconciler
}

func NewHandler(db *database.DB, registry *player.Registry, queue *player.QueueController, reconciler *player.Reconciler) *Handler {
	return &Handler{
		db:         db,
		registry:   registry,
		queue:      queue,
		reconciler: reconciler,
	}
}

func (h *Handler) SetSession(s *discordgo.Session) {
	h.session = s

	s.AddHandler(h.handleReady)
	s.AddHandler(h.handleInteraction)
	s.AddHandler(h.handleVoiceStateUpdate)
	s.AddHandler(h.handleGuildDelete)
}

func (h *Handler) handleReady(s *discordgo.Session, _ *discordgo.Ready) {
	log.Info().Str("user", s.State.User.Username).Msg("logged in")
}

// RegisterCommands registers the slash commands for the bot.
func (h *Handler) RegisterCommands() error {
	commands := []*discordgo.ApplicationCommand{
		{
			Name:        "setup",
			Description: "Turn the current channel into the music channel",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "language",
					Description: "Interface language",
					Required:    true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "English", Value: ui.LocaleEnglish},
						{Name: "Русский", Value: ui.LocaleRussian},
					},
				},
			},
		},
	}

	for _, cmd := range commands {
		_, err := h.session.ApplicationCommandCreate(h.session.State.User.ID, "", cmd)
		if err != nil {
			return fmt.Errorf("error creating '%s' command: %v", cmd.Name, err)
		}
	}

	log.Info().Msg("slash commands registered")
	return nil
}

func (h *Handler) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		if i.ApplicationCommandData().Name == "setup" {
			h.handleSetup(s, i)
		}

	case discordgo.InteractionMessageComponent:
		h.handleComponent(s, i)

	case discordgo.InteractionModalSubmit:
		if i.ModalSubmitData().CustomID == modalAddID {
			h.handleQueryModal(s, i)
		}
	}
}

// handleSetup binds the current channel as the guild's music channel:
// posts the two persistent messages, persists the setup and creates the
// session.
func (h *Handler) handleSetup(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Member == nil || i.Member.Permissions&discordgo.PermissionAdministrator == 0 {
		h.notice(s, i, "⛔ This command is only available to server administrators.")
		return
	}

	locale := ui.LocaleEnglish
	if opts := i.ApplicationCommandData().Options; len(opts) > 0 {
		locale = opts[0].StringValue()
	}

	// Claim the channel: topic plus a send-messages deny for @everyone.
	_, err := s.ChannelEditComplex(i.ChannelID, &discordgo.ChannelEdit{
		Topic: fmt.Sprintf("Music channel of %s", s.State.User.Username),
		PermissionOverwrites: []*discordgo.PermissionOverwrite{
			{
				ID:   i.GuildID, // @everyone role id equals the guild id
				Type: discordgo.PermissionOverwriteTypeRole,
				Deny: discordgo.PermissionSendMessages,
			},
		},
	})
	if err != nil {
		log.Warn().Err(err).Str("guild_id", i.GuildID).Msg("failed to claim music channel")
	}

	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: "Setting up...",
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	}); err != nil {
		log.Error().Err(err).Msg("failed to respond to setup")
		return
	}

	playerMsg, err := s.ChannelMessageSendComplex(i.ChannelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{ui.NothingPlayingEmbed(locale)},
		Components: ui.PlayerControls(ui.StateIdle, locale),
	})
	if err != nil {
		log.Error().Err(err).Str("guild_id", i.GuildID).Msg("failed to post player message")
		return
	}

	queueMsg, err := s.ChannelMessageSendComplex(i.ChannelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{ui.QueueEmbed(nil, locale)},
		Components: ui.QueueControls(locale),
	})
	if err != nil {
		log.Error().Err(err).Str("guild_id", i.GuildID).Msg("failed to post queue message")
		return
	}

	setup, err := h.db.AddGuildSetup(i.GuildID, i.ChannelID, playerMsg.ID, queueMsg.ID, locale)
	if err != nil {
		log.Error().Err(err).Str("guild_id", i.GuildID).Msg("failed to persist guild setup")
		return
	}

	if _, err := h.registry.CreateSession(*setup); err != nil {
		log.Error().Err(err).Str("guild_id", i.GuildID).Msg("failed to create session after setup")
		return
	}

	if err := s.InteractionResponseDelete(i.Interaction); err != nil {
		log.Debug().Err(err).Msg("failed to delete setup progress message")
	}
}

func (h *Handler) handleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	customID := i.MessageComponentData().CustomID

	if strings.HasPrefix(customID, selectPrefix) {
		h.handleTrackSelect(s, i, strings.TrimPrefix(customID, selectPrefix))
		return
	}

	switch customID {
	case ui.CustomIDAdd:
		h.handleAddButton(s, i)
	case ui.CustomIDSkip:
		h.handleSkipButton(s, i)
	case ui.CustomIDDisconnect:
		h.handleDisconnectButton(s, i)
	case ui.CustomIDHistory:
		h.handleHistoryButton(s, i)
	}
}

// handleAddButton opens the track query modal after checking the
// requester can actually be played to.
func (h *Handler) handleAddButton(s *discordgo.Session, i *discordgo.InteractionCreate) {
	voiceChannel := h.userVoiceChannel(i.GuildID, i.Member.User.ID)
	if voiceChannel == "" {
		h.notice(s, i, "⛔ You are not connected to a voice channel on this server.")
		return
	}

	if botChannel, ok := NewRoster(s).BotVoiceChannel(i.GuildID); ok && botChannel != voiceChannel {
		h.notice(s, i, "⛔ The bot is already playing in another voice channel.")
		return
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: modalAddID,
			Title:    "Add a track",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.TextInput{
							CustomID:    modalQueryInput,
							Label:       "Track URL or search query",
							Style:       discordgo.TextInputShort,
							Required:    true,
							MaxLength:   400,
							Placeholder: "https://... or a search term",
						},
					},
				},
			},
		},
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to open track modal")
	}
}

// handleQueryModal funnels the submitted query through the controller
// and either confirms, reports an empty/failed search, or offers the
// disambiguation list.
func (h *Handler) handleQueryModal(s *discordgo.Session, i *discordgo.InteractionCreate) {
	query := modalInputValue(i.ModalSubmitData(), modalQueryInput)
	if query == "" {
		return
	}

	voiceChannel := h.userVoiceChannel(i.GuildID, i.Member.User.ID)
	if voiceChannel == "" {
		h.notice(s, i, "⛔ You are not connected to a voice channel on this server.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	outcome, err := h.queue.SubmitQuery(ctx, i.GuildID, query, i.Member.User.Username, voiceChannel)
	switch {
	case errors.Is(err, player.ErrNoResults):
		h.notice(s, i, "🔍 Nothing was found for your query.")
		return
	case errors.Is(err, player.ErrBackendLoad):
		h.notice(s, i, "⚠️ The audio node could not load this source.")
		return
	case err != nil:
		log.Error().Err(err).Str("guild_id", i.GuildID).Msg("query failed")
		h.notice(s, i, "⚠️ Something went wrong, try again later.")
		return
	}

	if len(outcome.Queued) > 0 {
		h.notice(s, i, fmt.Sprintf("✅ Added %d track(s) to the queue.", len(outcome.Queued)))
		return
	}

	h.offerSelection(s, i, outcome)
}

// offerSelection shows the top matches as an ephemeral select menu. The
// prompt removes itself when the selection times out.
func (h *Handler) offerSelection(s *discordgo.Session, i *discordgo.InteractionCreate, outcome *player.Outcome) {
	options := make([]discordgo.SelectMenuOption, 0, len(outcome.Choices))
	for idx, track := range outcome.Choices {
		options = append(options, discordgo.SelectMenuOption{
			Label:       truncate(track.Info.Title, 100),
			Description: truncate(track.Info.Author, 100),
			Value:       strconv.Itoa(idx),
		})
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: "Pick a track:",
			Flags:   discordgo.MessageFlagsEphemeral,
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.SelectMenu{
							CustomID:    selectPrefix + outcome.Token,
							Placeholder: "Search results",
							Options:     options,
						},
					},
				},
			},
		},
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to offer track selection")
		return
	}

	interaction := i.Interaction
	h.queue.BindPrompt(outcome.Token, func() {
		if err := s.InteractionResponseDelete(interaction); err != nil {
			log.Debug().Err(err).Msg("failed to delete expired selection prompt")
		}
	})
}

func (h *Handler) handleTrackSelect(s *discordgo.Session, i *discordgo.InteractionCreate, token string) {
	values := i.MessageComponentData().Values
	if len(values) == 0 {
		return
	}
	index, err := strconv.Atoi(values[0])
	if err != nil {
		return
	}

	track, err := h.queue.ConfirmSelection(token, index)
	if err != nil {
		if errors.Is(err, player.ErrSelectionExpired) {
			h.respondUpdate(s, i, "⌛ This selection has expired.")
			return
		}
		log.Error().Err(err).Str("guild_id", i.GuildID).Msg("selection failed")
		h.respondUpdate(s, i, "⚠️ Could not queue this track.")
		return
	}

	h.respondUpdate(s, i, fmt.Sprintf("✅ Queued **%s**.", track.Info.Title))
}

func (h *Handler) handleSkipButton(s *discordgo.Session, i *discordgo.InteractionCreate) {
	session, ok := h.registry.Get(i.GuildID)
	if !ok {
		h.notice(s, i, "⛔ Nothing is playing.")
		return
	}

	if err := session.Player.Skip(); err != nil {
		log.Error().Err(err).Str("guild_id", i.GuildID).Msg("skip failed")
	}
	h.ack(s, i)
}

func (h *Handler) handleDisconnectButton(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if err := h.queue.Disconnect(i.GuildID); err != nil {
		log.Error().Err(err).Str("guild_id", i.GuildID).Msg("disconnect failed")
	}
	h.ack(s, i)
}

func (h *Handler) handleHistoryButton(s *discordgo.Session, i *discordgo.InteractionCreate) {
	entries, err := h.db.GetHistory(i.GuildID)
	if err != nil {
		log.Error().Err(err).Str("guild_id", i.GuildID).Msg("failed to load history")
		h.notice(s, i, "⚠️ Could not load the history.")
		return
	}

	locale := ui.LocaleEnglish
	if session, ok := h.registry.Get(i.GuildID); ok {
		locale = session.Locale
	}

	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{ui.HistoryEmbed(entries, locale)},
			Flags:  discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to show history")
	}
}

func (h *Handler) handleVoiceStateUpdate(_ *discordgo.Session, v *discordgo.VoiceStateUpdate) {
	before := ""
	if v.BeforeUpdate != nil {
		before = v.BeforeUpdate.ChannelID
	}
	h.reconciler.OnVoiceStateChange(v.GuildID, v.UserID, before, v.ChannelID)
}

// handleGuildDelete tears the session down when the bot is removed from
// a guild.
func (h *Handler) handleGuildDelete(_ *discordgo.Session, g *discordgo.GuildDelete) {
	log.Info().Str("guild_id", g.ID).Msg("removed from guild, destroying session")
	if err := h.registry.DestroySession(g.ID); err != nil {
		log.Error().Err(err).Str("guild_id", g.ID).Msg("failed to destroy session")
	}
}

func (h *Handler) userVoiceChannel(guildID, userID string) string {
	guild, err := h.session.State.Guild(guildID)
	if err != nil {
		return ""
	}
	for _, vs := range guild.VoiceStates {
		if vs.UserID == userID {
			return vs.ChannelID
		}
	}
	return ""
}

// notice sends an ephemeral, auto-expiring reply.
func (h *Handler) notice(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to send notice")
		return
	}

	interaction := i.Interaction
	time.AfterFunc(noticeTTL, func() {
		_ = s.InteractionResponseDelete(interaction)
	})
}

// respondUpdate replaces the ephemeral prompt the component lives on.
func (h *Handler) respondUpdate(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    content,
			Components: []discordgo.MessageComponent{},
		},
	})
	if err != nil {
		log.Debug().Err(err).Msg("failed to update prompt")
	}
}

// ack acknowledges a component click without changing the message; the
// resync protocol owns the rendering.
func (h *Handler) ack(s *discordgo.Session, i *discordgo.InteractionCreate) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
	if err != nil {
		log.Debug().Err(err).Msg("failed to ack interaction")
	}
}

func modalInputValue(data discordgo.ModalSubmitInteractionData, customID string) string {
	for _, row := range data.Components {
		actionsRow, ok := row.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, comp := range actionsRow.Components {
			if input, ok := comp.(*discordgo.TextInput); ok && input.CustomID == customID {
				return strings.TrimSpace(input.Value)
			}
		}
	}
	return ""
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
