// internal/player/queue.go
package player

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"discord-music-bot/internal/lavalink"

	"github.com/rs/zerolog/log"
)

const (
	// searchPrefix rewrites free-text queries into the node's search
	// directive.
	searchPrefix = "ytsearch:"

	// disambiguationLimit caps the selection list for free-text queries.
	disambiguationLimit = 5

	// DefaultSelectTimeout is how long a disambiguation prompt stays
	// valid without a selection.
	DefaultSelectTimeout = 30 * time.Second
)

// Outcome is the result of a submitted query: either tracks that were
// queued right away, or a disambiguation list awaiting ConfirmSelection.
type Outcome struct {
	Queued  []lavalink.Track
	Choices []lavalink.Track
	Token   string
}

// QueueController accepts search queries, resolves them to tracks and
// funnels every entry point through a single enqueue/connect/play path.
type QueueController struct {
	registry *Registry
	backend  Backend
	syncer   *Syncer

	selectTimeout time.Duration

	mu      sync.Mutex
	pending map[string]*pendingSelection
}

type pendingSelection struct {
	guildID      string
	requester    string
	voiceChannel string
	tracks       []lavalink.Track
	timer        *time.Timer
	cleanup      func()
}

func NewQueueController(registry *Registry, backend Backend, syncer *Syncer, selectTimeout time.Duration) *QueueController {
	if selectTimeout <= 0 {
		selectTimeout = DefaultSelectTimeout
	}
	return &QueueController{
		registry:      registry,
		backend:       backend,
		syncer:        syncer,
		selectTimeout: selectTimeout,
		pending:       make(map[string]*pendingSelection),
	}
}

// SubmitQuery classifies the query, dispatches exactly one search call
// and either queues the result or returns a disambiguation list.
func (qc *QueueController) SubmitQuery(ctx context.Context, guildID, rawQuery, requesterName, voiceChannelID string) (*Outcome, error) {
	direct := isURL(rawQuery)

	identifier := rawQuery
	if !direct {
		identifier = searchPrefix + rawQuery
	}

	result, err := qc.backend.Search(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	switch result.LoadType {
	case lavalink.LoadTypeError:
		if result.Exception != nil {
			return nil, fmt.Errorf("%w: %s", ErrBackendLoad, result.Exception.Message)
		}
		return nil, ErrBackendLoad

	case lavalink.LoadTypeEmpty:
		return nil, ErrNoResults
	}

	if len(result.Tracks) == 0 {
		return nil, ErrNoResults
	}

	// Direct URLs queue everything they resolved to, a single track or a
	// whole playlist, preserving order.
	if direct {
		if err := qc.Enqueue(guildID, result.Tracks, voiceChannelID, requesterName); err != nil {
			return nil, err
		}
		return &Outcome{Queued: result.Tracks}, nil
	}

	choices := result.Tracks
	if len(choices) > disambiguationLimit {
		choices = choices[:disambiguationLimit]
	}

	token := qc.addPending(&pendingSelection{
		guildID:      guildID,
		requester:    requesterName,
		voiceChannel: voiceChannelID,
		tracks:       choices,
	})

	return &Outcome{Choices: choices, Token: token}, nil
}

// ConfirmSelection queues the chosen track of a pending disambiguation.
// A selection after the timeout already fired reports ErrSelectionExpired.
func (qc *QueueController) ConfirmSelection(token string, index int) (*lavalink.Track, error) {
	qc.mu.Lock()
	sel, ok := qc.pending[token]
	if ok {
		delete(qc.pending, token)
		sel.timer.Stop()
	}
	qc.mu.Unlock()

	if !ok {
		return nil, ErrSelectionExpired
	}
	if index < 0 || index >= len(sel.tracks) {
		return nil, fmt.Errorf("selection index %d out of range", index)
	}

	track := sel.tracks[index]
	if err := qc.Enqueue(sel.guildID, []lavalink.Track{track}, sel.voiceChannel, sel.requester); err != nil {
		return nil, err
	}
	return &track, nil
}

// BindPrompt attaches the cleanup that removes the ephemeral prompt when
// the selection times out. Binding an already-expired token runs the
// cleanup immediately.
func (qc *QueueController) BindPrompt(token string, cleanup func()) {
	qc.mu.Lock()
	sel, ok := qc.pending[token]
	if ok {
		sel.cleanup = cleanup
	}
	qc.mu.Unlock()

	if !ok && cleanup != nil {
		cleanup()
	}
}

// Enqueue is the single mutation point for the queue: it appends the
// tracks in order, connects and starts playback when the player is idle,
// and resyncs the queue message afterwards.
func (qc *QueueController) Enqueue(guildID string, tracks []lavalink.Track, voiceChannelID, requesterName string) error {
	// The handle is looked up fresh on every operation; a session may
	// have been torn down while a search was in flight.
	handle, ok := qc.backend.GetPlayer(guildID)
	if !ok {
		return fmt.Errorf("guild %s: %w", guildID, ErrNoActivePlayer)
	}

	queued := make([]lavalink.Track, len(tracks))
	copy(queued, tracks)
	for i := range queued {
		queued[i].Requester = requesterName
	}
	handle.Enqueue(queued...)

	if !handle.IsPlaying() {
		// Connect always precedes play; play on an unconnected handle
		// is invalid.
		if err := qc.backend.Connect(guildID, voiceChannelID); err != nil {
			return fmt.Errorf("failed to join voice channel: %w", err)
		}
		if _, err := handle.PlayNext(); err != nil {
			return fmt.Errorf("failed to start playback: %w", err)
		}
	}

	if session, ok := qc.registry.Get(guildID); ok {
		if queue := handle.Queue(); len(queue) > 0 {
			qc.syncer.SyncQueue(session, queue)
		}
	}

	log.Debug().Str("guild_id", guildID).Int("tracks", len(queued)).Str("requester", requesterName).Msg("tracks enqueued")
	return nil
}

// Disconnect stops playback and leaves voice. While a track is playing,
// stopping makes the node emit a track-end event and the queue-end path
// handles the voice leave and idle render; with nothing current the node
// emits no event, so both happen here directly.
func (qc *QueueController) Disconnect(guildID string) error {
	handle, ok := qc.backend.GetPlayer(guildID)
	if !ok {
		return nil
	}

	if handle.IsPlaying() {
		return handle.Stop()
	}

	handle.ClearQueue()
	if err := qc.backend.Disconnect(guildID); err != nil {
		return fmt.Errorf("failed to leave voice channel: %w", err)
	}
	if session, ok := qc.registry.Get(guildID); ok {
		qc.syncer.SyncIdle(session)
	}
	return nil
}

func (qc *QueueController) addPending(sel *pendingSelection) string {
	token := newToken()

	sel.timer = time.AfterFunc(qc.selectTimeout, func() {
		qc.expire(token)
	})

	qc.mu.Lock()
	qc.pending[token] = sel
	qc.mu.Unlock()

	return token
}

// expire discards a pending selection that timed out. The pending map
// delete is the one-shot gate: a selection and the timer race for it,
// and whichever loses becomes a no-op.
func (qc *QueueController) expire(token string) {
	qc.mu.Lock()
	sel, ok := qc.pending[token]
	if ok {
		delete(qc.pending, token)
	}
	qc.mu.Unlock()

	if !ok {
		return
	}

	log.Debug().Str("guild_id", sel.guildID).Msg("track selection timed out")
	if sel.cleanup != nil {
		sel.cleanup()
	}
}

// isURL is a pure syntactic check, not a network probe.
func isURL(query string) bool {
	if !strings.HasPrefix(query, "http://") && !strings.HasPrefix(query, "https://") {
		return false
	}
	u, err := url.Parse(query)
	return err == nil && u.Host != ""
}

func newToken() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
