// internal/lavalink/events.go
package lavalink

// Event is a typed node event delivered on the client's event channel.
// Per-guild ordering follows the order the node emits; there is no
// ordering guarantee across guilds.
type Event interface {
	lavalinkEvent()
}

// NodeReadyEvent is emitted once the websocket handshake completes and
// the node has assigned a session id.
type NodeReadyEvent struct {
	SessionID string
	Resumed   bool
}

// TrackStartEvent is emitted when the node starts playing a track.
type TrackStartEvent struct {
	GuildID string
	Track   Track
}

// QueueEndEvent is emitted when playback stops and no track is queued.
type QueueEndEvent struct {
	GuildID string
}

func (NodeReadyEvent) lavalinkEvent()  {}
func (TrackStartEvent) lavalinkEvent() {}
func (QueueEndEvent) lavalinkEvent()   {}
