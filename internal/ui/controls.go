// internal/ui/controls.go
package ui

import "github.com/bwmarrin/discordgo"

// State selects which control set is rendered. The buttons are always
// present; idle just disables the ones that need a playing track.
type State int

const (
	StateIdle State = iota
	StatePlaying
)

// Component custom ids, stable across restarts so rebound views keep
// working on messages posted by an earlier process.
const (
	CustomIDAdd        = "btn_add"
	CustomIDSkip       = "btn_skip"
	CustomIDStub       = "btn_stub"
	CustomIDDisconnect = "btn_disconnect"
	CustomIDHistory    = "btn_history"
)

// PlayerControls builds the button row under the now-playing message.
func PlayerControls(state State, locale string) []discordgo.MessageComponent {
	s := localized(locale)
	idle := state == StateIdle

	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					CustomID: CustomIDAdd,
					Label:    s.BtnAdd,
					Style:    discordgo.SuccessButton,
					Emoji:    &discordgo.ComponentEmoji{Name: "💬"},
				},
				discordgo.Button{
					CustomID: CustomIDSkip,
					Label:    s.BtnSkip,
					Style:    discordgo.SecondaryButton,
					Emoji:    &discordgo.ComponentEmoji{Name: "⏭️"},
					Disabled: idle,
				},
				discordgo.Button{
					CustomID: CustomIDStub,
					Label:    "​",
					Style:    discordgo.SecondaryButton,
					Disabled: true,
				},
				discordgo.Button{
					CustomID: CustomIDDisconnect,
					Label:    s.BtnDisconnect,
					Style:    discordgo.DangerButton,
					Disabled: idle,
				},
			},
		},
	}
}

// QueueControls builds the button row under the queue message.
func QueueControls(locale string) []discordgo.MessageComponent {
	s := localized(locale)

	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					CustomID: CustomIDHistory,
					Label:    s.BtnHistory,
					Style:    discordgo.SecondaryButton,
					Emoji:    &discordgo.ComponentEmoji{Name: "🔖"},
				},
			},
		},
	}
}
