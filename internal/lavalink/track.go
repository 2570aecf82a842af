// Package lavalink is a minimal Lavalink v4 client: one node over a
// websocket for events, REST for track loading and player control.
package lavalink

// TrackInfo contains information about a track as reported by the node.
type TrackInfo struct {
	Identifier string `json:"identifier"`
	IsSeekable bool   `json:"isSeekable"`
	Author     string `json:"author"`
	Length     int64  `json:"length"`
	IsStream   bool   `json:"isStream"`
	Position   int64  `json:"position"`
	Title      string `json:"title"`
	URI        string `json:"uri"`
	ArtworkURL string `json:"artworkUrl"`
	SourceName string `json:"sourceName"`
}

// Track is a playable track. The Encoded blob is what the node accepts
// back in play requests; Requester is attached locally at enqueue time.
type Track struct {
	Encoded   string    `json:"encoded"`
	Info      TrackInfo `json:"info"`
	Requester string    `json:"-"`
}

// Duration returns the track length in milliseconds, or nil for streams
// where the length is unknown.
func (t Track) Duration() *int64 {
	if t.Info.IsStream {
		return nil
	}
	length := t.Info.Length
	return &length
}

// Load types returned by the v4 loadtracks endpoint.
const (
	LoadTypeTrack    = "track"
	LoadTypePlaylist = "playlist"
	LoadTypeSearch   = "search"
	LoadTypeEmpty    = "empty"
	LoadTypeError    = "error"
)

// LoadResult is the decoded response of a loadtracks call, flattened so
// track, playlist and search loads all expose their tracks the same way.
type LoadResult struct {
	LoadType  string
	Tracks    []Track
	Exception *LoadException
}

// LoadException describes a failed load.
type LoadException struct {
	Message  string `json:"message"`
	Severity string `json:"severity"`
	Cause    string `json:"cause"`
}
