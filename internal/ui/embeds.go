// internal/ui/embeds.go
package ui

import (
	"fmt"

	"discord-music-bot/internal/lavalink"
	"discord-music-bot/internal/models"

	"github.com/bwmarrin/discordgo"
)

const (
	embedColour = 15548997

	// queueDisplayLimit caps how many queue entries are rendered; the
	// remainder collapses into a single overflow field.
	queueDisplayLimit = 20
)

// NowPlayingEmbed renders the current track.
func NowPlayingEmbed(track lavalink.Track, locale string) *discordgo.MessageEmbed {
	s := localized(locale)

	embed := &discordgo.MessageEmbed{
		Title:  s.NowPlaying,
		Color:  embedColour,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:  track.Info.Author,
				Value: fmt.Sprintf("[%s](%s) (%s)", track.Info.Title, track.Info.URI, FormatDuration(track.Duration())),
			},
			{
				Name:  s.RequestedBy,
				Value: track.Requester,
			},
		},
	}

	if track.Info.ArtworkURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: HQThumbnail(track.Info.ArtworkURL)}
	}

	return embed
}

// NothingPlayingEmbed is the idle placeholder for the player message.
func NothingPlayingEmbed(locale string) *discordgo.MessageEmbed {
	s := localized(locale)

	return &discordgo.MessageEmbed{
		Title: s.NothingPlaying,
		Color: embedColour,
		Fields: []*discordgo.MessageEmbedField{
			{Name: s.NothingHintName, Value: s.NothingHintValue},
		},
	}
}

// QueueEmbed renders up to 20 queued tracks plus an overflow counter.
func QueueEmbed(queue []lavalink.Track, locale string) *discordgo.MessageEmbed {
	s := localized(locale)

	embed := &discordgo.MessageEmbed{
		Title: s.Queue,
		Color: embedColour,
	}

	if len(queue) == 0 {
		embed.Fields = []*discordgo.MessageEmbedField{
			{Name: s.QueueEmptyName, Value: s.QueueEmptyValue},
		}
		return embed
	}

	shown := queue
	if len(shown) > queueDisplayLimit {
		shown = shown[:queueDisplayLimit]
	}

	for i, track := range shown {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   fmt.Sprintf("**%d.** %s", i+1, track.Info.Author),
			Value:  fmt.Sprintf("[%s](%s) (%s)", track.Info.Title, track.Info.URI, FormatDuration(track.Duration())),
			Inline: false,
		})
	}

	if overflow := len(queue) - len(shown); overflow > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "​",
			Value:  fmt.Sprintf(s.QueueMore, overflow),
			Inline: false,
		})
	}

	return embed
}

// HistoryEmbed renders the recently played list.
func HistoryEmbed(entries []models.HistoryEntry, locale string) *discordgo.MessageEmbed {
	s := localized(locale)

	embed := &discordgo.MessageEmbed{
		Title: s.History,
		Color: embedColour,
	}

	if len(entries) == 0 {
		embed.Fields = []*discordgo.MessageEmbedField{
			{Name: s.HistoryEmptyName, Value: s.QueueEmptyValue},
		}
		return embed
	}

	for i, entry := range entries {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   fmt.Sprintf("**%d.** %s", i+1, entry.Author),
			Value:  fmt.Sprintf("[%s](%s)", entry.Title, entry.URI),
			Inline: false,
		})
	}

	return embed
}
