// internal/lavalink/client.go
package lavalink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	reconnectDelay = 5 * time.Second
	restTimeout    = 10 * time.Second
)

// NodeConfig holds the connection settings for a Lavalink node.
type NodeConfig struct {
	Host     string
	Port     int
	Password string
	Secure   bool
}

// Client manages the connection to a single Lavalink node and the
// per-guild player handles. Construct it with NewClient and inject it;
// it deliberately has no package-level instance.
type Client struct {
	session *discordgo.Session
	cfg     NodeConfig
	http    *http.Client

	mu        sync.RWMutex
	conn      *websocket.Conn
	connected bool
	sessionID string

	pmu     sync.RWMutex
	players map[string]*Player

	vmu   sync.Mutex
	voice map[string]*voiceState

	events chan Event
	closed chan struct{}
}

// voiceState accumulates the two Discord gateway payloads the node needs
// before a player can receive audio.
type voiceState struct {
	token     string
	endpoint  string
	sessionID string
}

func NewClient(session *discordgo.Session, cfg NodeConfig) *Client {
	c := &Client{
		session: session,
		cfg:     cfg,
		http:    &http.Client{Timeout: restTimeout},
		players: make(map[string]*Player),
		voice:   make(map[string]*voiceState),
		events:  make(chan Event, 16),
		closed:  make(chan struct{}),
	}

	session.AddHandler(c.onVoiceServerUpdate)
	session.AddHandler(c.onVoiceStateUpdate)

	return c
}

// Events returns the node event stream consumed by the player core.
func (c *Client) Events() <-chan Event {
	return c.events
}

// Open dials the node websocket and starts the read loop. The Discord
// session must already be open so the bot user id is known.
func (c *Client) Open() error {
	scheme := "ws"
	if c.cfg.Secure {
		scheme = "wss"
	}
	wsURL := fmt.Sprintf("%s://%s:%d/v4/websocket", scheme, c.cfg.Host, c.cfg.Port)

	headers := http.Header{}
	headers.Set("Authorization", c.cfg.Password)
	headers.Set("User-Id", c.session.State.User.ID)
	headers.Set("Client-Name", "discord-music-bot/1.0")

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.Dial(wsURL, headers)
	if err != nil {
		return fmt.Errorf("failed to connect to lavalink node: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	log.Info().Str("host", c.cfg.Host).Msg("connected to lavalink node")

	go c.readMessages(conn)
	return nil
}

// Close shuts the websocket down and stops the event stream.
func (c *Client) Close() {
	close(c.closed)

	c.mu.Lock()
	if c.conn != nil {
		c.conn.Close()
	}
	c.connected = false
	c.mu.Unlock()
}

func (c *Client) readMessages(conn *websocket.Conn) {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-c.closed:
				return
			default:
			}
			log.Warn().Err(err).Msg("lavalink websocket read error, reconnecting")
			c.handleDisconnect()
			return
		}

		c.handleMessage(message)
	}
}

func (c *Client) handleDisconnect() {
	c.mu.Lock()
	c.connected = false
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.mu.Unlock()

	select {
	case <-c.closed:
		return
	case <-time.After(reconnectDelay):
	}

	if err := c.Open(); err != nil {
		log.Error().Err(err).Msg("lavalink reconnect failed, retrying")
		go c.handleDisconnect()
	}
}

func (c *Client) handleMessage(message []byte) {
	var base struct {
		Op string `json:"op"`
	}
	if err := json.Unmarshal(message, &base); err != nil {
		return
	}

	switch base.Op {
	case "ready":
		var payload struct {
			SessionID string `json:"sessionId"`
			Resumed   bool   `json:"resumed"`
		}
		if err := json.Unmarshal(message, &payload); err != nil {
			return
		}
		c.mu.Lock()
		c.sessionID = payload.SessionID
		c.mu.Unlock()
		c.emit(NodeReadyEvent{SessionID: payload.SessionID, Resumed: payload.Resumed})

	case "event":
		c.handleEvent(message)

	case "playerUpdate", "stats":
		// Position/stats updates are not used.
	}
}

func (c *Client) handleEvent(message []byte) {
	var payload struct {
		Type    string `json:"type"`
		GuildID string `json:"guildId"`
		Track   *Track `json:"track"`
		Reason  string `json:"reason"`
	}
	if err := json.Unmarshal(message, &payload); err != nil {
		return
	}

	switch payload.Type {
	case "TrackStartEvent":
		player, ok := c.GetPlayer(payload.GuildID)
		if !ok {
			return
		}
		track := player.Current()
		if track == nil && payload.Track != nil {
			track = payload.Track
		}
		if track == nil {
			return
		}
		c.emit(TrackStartEvent{GuildID: payload.GuildID, Track: *track})

	case "TrackEndEvent":
		c.handleTrackEnd(payload.GuildID, payload.Reason)

	case "TrackExceptionEvent":
		log.Error().Str("guild_id", payload.GuildID).Msg("track exception reported by node")
		c.handleTrackEnd(payload.GuildID, "loadFailed")

	case "TrackStuckEvent":
		log.Warn().Str("guild_id", payload.GuildID).Msg("track stuck reported by node")

	case "WebSocketClosedEvent":
		log.Warn().Str("guild_id", payload.GuildID).Msg("voice websocket closed by discord")
	}
}

// handleTrackEnd advances the queue for reasons that allow it and emits
// QueueEndEvent when nothing is left to play.
func (c *Client) handleTrackEnd(guildID, reason string) {
	player, ok := c.GetPlayer(guildID)
	if !ok {
		return
	}

	switch reason {
	case "finished", "loadFailed":
		started, err := player.PlayNext()
		if err != nil {
			log.Error().Err(err).Str("guild_id", guildID).Msg("failed to play next track")
		}
		if !started {
			c.emit(QueueEndEvent{GuildID: guildID})
		}
	case "stopped", "cleanup":
		player.clearCurrent()
		if len(player.Queue()) == 0 {
			c.emit(QueueEndEvent{GuildID: guildID})
		}
	case "replaced":
		// A new track was pushed over this one; TrackStartEvent follows.
	}
}

func (c *Client) emit(event Event) {
	select {
	case c.events <- event:
	case <-c.closed:
	}
}

// Search resolves an identifier (URL or search directive) through the
// node's loadtracks endpoint.
func (c *Client) Search(ctx context.Context, identifier string) (*LoadResult, error) {
	endpoint := fmt.Sprintf("%s/v4/loadtracks?identifier=%s", c.restBase(), url.QueryEscape(identifier))

	body, err := c.rest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var raw struct {
		LoadType string          `json:"loadType"`
		Data     json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode loadtracks response: %w", err)
	}

	result := &LoadResult{LoadType: raw.LoadType}

	switch raw.LoadType {
	case LoadTypeTrack:
		var track Track
		if err := json.Unmarshal(raw.Data, &track); err != nil {
			return nil, fmt.Errorf("failed to decode track result: %w", err)
		}
		result.Tracks = []Track{track}

	case LoadTypePlaylist:
		var playlist struct {
			Tracks []Track `json:"tracks"`
		}
		if err := json.Unmarshal(raw.Data, &playlist); err != nil {
			return nil, fmt.Errorf("failed to decode playlist result: %w", err)
		}
		result.Tracks = playlist.Tracks

	case LoadTypeSearch:
		if err := json.Unmarshal(raw.Data, &result.Tracks); err != nil {
			return nil, fmt.Errorf("failed to decode search result: %w", err)
		}

	case LoadTypeError:
		var exception LoadException
		if err := json.Unmarshal(raw.Data, &exception); err == nil {
			result.Exception = &exception
		}

	case LoadTypeEmpty:
	}

	return result, nil
}

// CreatePlayer creates the local player handle for a guild. The remote
// player is materialized lazily by the first voice or play update.
func (c *Client) CreatePlayer(guildID string) *Player {
	c.pmu.Lock()
	defer c.pmu.Unlock()

	if player, ok := c.players[guildID]; ok {
		return player
	}

	player := newPlayer(c, guildID)
	c.players[guildID] = player
	return player
}

// GetPlayer returns the player handle for a guild, if one exists. It
// never creates one as a side effect.
func (c *Client) GetPlayer(guildID string) (*Player, bool) {
	c.pmu.RLock()
	defer c.pmu.RUnlock()
	player, ok := c.players[guildID]
	return player, ok
}

// DestroyPlayer drops the handle and deletes the remote player.
// Destroying an absent player is not an error.
func (c *Client) DestroyPlayer(guildID string) {
	c.pmu.Lock()
	_, existed := c.players[guildID]
	delete(c.players, guildID)
	c.pmu.Unlock()

	c.vmu.Lock()
	delete(c.voice, guildID)
	c.vmu.Unlock()

	if !existed {
		return
	}

	endpoint := fmt.Sprintf("%s/v4/sessions/%s/players/%s", c.restBase(), c.currentSessionID(), guildID)
	if _, err := c.rest(context.Background(), http.MethodDelete, endpoint, nil); err != nil {
		log.Warn().Err(err).Str("guild_id", guildID).Msg("failed to destroy remote player")
	}
}

// Connect joins the bot to a voice channel. The resulting gateway
// payloads are forwarded to the node by the voice handlers.
func (c *Client) Connect(guildID, channelID string) error {
	return c.session.ChannelVoiceJoinManual(guildID, channelID, false, true)
}

// Disconnect leaves the guild's voice channel.
func (c *Client) Disconnect(guildID string) error {
	return c.session.ChannelVoiceJoinManual(guildID, "", false, true)
}

func (c *Client) play(guildID, encoded string) error {
	return c.updatePlayer(guildID, map[string]any{
		"track": map[string]any{"encoded": encoded},
	})
}

func (c *Client) stop(guildID string) error {
	return c.updatePlayer(guildID, map[string]any{
		"track": map[string]any{"encoded": nil},
	})
}

func (c *Client) updatePlayer(guildID string, update map[string]any) error {
	sessionID := c.currentSessionID()
	if sessionID == "" {
		return fmt.Errorf("lavalink node is not ready")
	}

	payload, err := json.Marshal(update)
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/v4/sessions/%s/players/%s?noReplace=false", c.restBase(), sessionID, guildID)
	_, err = c.rest(context.Background(), http.MethodPatch, endpoint, payload)
	return err
}

func (c *Client) rest(ctx context.Context, method, endpoint string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", c.cfg.Password)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lavalink request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusNotFound && method == http.MethodDelete {
		return data, nil
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("lavalink returned %d: %s", resp.StatusCode, string(data))
	}

	return data, nil
}

func (c *Client) restBase() string {
	scheme := "http"
	if c.cfg.Secure {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, c.cfg.Host, c.cfg.Port)
}

func (c *Client) currentSessionID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionID
}

// onVoiceServerUpdate forwards the voice server token and endpoint to
// the node once the matching session id is known.
func (c *Client) onVoiceServerUpdate(_ *discordgo.Session, v *discordgo.VoiceServerUpdate) {
	c.vmu.Lock()
	state := c.voiceFor(v.GuildID)
	state.token = v.Token
	state.endpoint = v.Endpoint
	c.vmu.Unlock()

	c.pushVoiceUpdate(v.GuildID)
}

// onVoiceStateUpdate tracks the bot's own voice session id.
func (c *Client) onVoiceStateUpdate(s *discordgo.Session, v *discordgo.VoiceStateUpdate) {
	if v.UserID != s.State.User.ID {
		return
	}

	if v.ChannelID == "" {
		c.vmu.Lock()
		delete(c.voice, v.GuildID)
		c.vmu.Unlock()
		return
	}

	c.vmu.Lock()
	state := c.voiceFor(v.GuildID)
	state.sessionID = v.SessionID
	c.vmu.Unlock()

	c.pushVoiceUpdate(v.GuildID)
}

// voiceFor must be called with vmu held.
func (c *Client) voiceFor(guildID string) *voiceState {
	state, ok := c.voice[guildID]
	if !ok {
		state = &voiceState{}
		c.voice[guildID] = state
	}
	return state
}

func (c *Client) pushVoiceUpdate(guildID string) {
	c.vmu.Lock()
	state, ok := c.voice[guildID]
	if !ok || state.token == "" || state.endpoint == "" || state.sessionID == "" {
		c.vmu.Unlock()
		return
	}
	update := map[string]any{
		"voice": map[string]any{
			"token":     state.token,
			"endpoint":  state.endpoint,
			"sessionId": state.sessionID,
		},
	}
	c.vmu.Unlock()

	if err := c.updatePlayer(guildID, update); err != nil {
		log.Warn().Err(err).Str("guild_id", guildID).Msg("failed to push voice update to node")
	}
}
