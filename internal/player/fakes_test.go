package player

import (
	"context"
	"fmt"
	"sync"

	"discord-music-bot/internal/lavalink"
	"discord-music-bot/internal/models"
)

// fakeStore keeps setups in a slice so rehydration order is stable.
type fakeStore struct {
	setups  []models.GuildSetup
	deleted []string
}

func (s *fakeStore) AddGuildSetup(guildID, channelID, playerMessageID, queueMessageID, locale string) (*models.GuildSetup, error) {
	setup := models.GuildSetup{
		GuildID:         guildID,
		ChannelID:       channelID,
		PlayerMessageID: playerMessageID,
		QueueMessageID:  queueMessageID,
		Locale:          locale,
	}
	for i := range s.setups {
		if s.setups[i].GuildID == guildID {
			s.setups[i] = setup
			return &setup, nil
		}
	}
	s.setups = append(s.setups, setup)
	return &setup, nil
}

func (s *fakeStore) GetGuildSetup(guildID string) (*models.GuildSetup, error) {
	for _, setup := range s.setups {
		if setup.GuildID == guildID {
			return &setup, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) AllGuildSetups() ([]models.GuildSetup, error) {
	out := make([]models.GuildSetup, len(s.setups))
	copy(out, s.setups)
	return out, nil
}

func (s *fakeStore) DeleteGuildSetup(guildID string) error {
	s.deleted = append(s.deleted, guildID)
	for i, setup := range s.setups {
		if setup.GuildID == guildID {
			s.setups = append(s.setups[:i], s.setups[i+1:]...)
			break
		}
	}
	return nil
}

type fakeHistory struct {
	entries []models.HistoryEntry
}

func (h *fakeHistory) AddHistory(guildID, author, title, uri string) error {
	h.entries = append(h.entries, models.HistoryEntry{GuildID: guildID, Author: author, Title: title, URI: uri})
	return nil
}

func (h *fakeHistory) GetHistory(guildID string) ([]models.HistoryEntry, error) {
	return h.entries, nil
}

// fakeHandle mimics the lavalink player handle without a node.
type fakeHandle struct {
	mu      sync.Mutex
	queue   []lavalink.Track
	current *lavalink.Track
}

func (h *fakeHandle) Enqueue(tracks ...lavalink.Track) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.queue = append(h.queue, tracks...)
}

func (h *fakeHandle) Queue() []lavalink.Track {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]lavalink.Track, len(h.queue))
	copy(out, h.queue)
	return out
}

func (h *fakeHandle) Current() *lavalink.Track {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

func (h *fakeHandle) IsPlaying() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current != nil
}

func (h *fakeHandle) PlayNext() (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.queue) == 0 {
		h.current = nil
		return false, nil
	}
	next := h.queue[0]
	h.queue = h.queue[1:]
	h.current = &next
	return true, nil
}

func (h *fakeHandle) Skip() error {
	_, err := h.PlayNext()
	return err
}

func (h *fakeHandle) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.queue = nil
	h.current = nil
	return nil
}

func (h *fakeHandle) ClearQueue() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.queue = nil
}

type fakeBackend struct {
	searchResult *lavalink.LoadResult
	searchErr    error
	searchCalls  []string

	players     map[string]*fakeHandle
	connects    []string
	disconnects []string
	destroyed   []string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{players: make(map[string]*fakeHandle)}
}

func (b *fakeBackend) Search(_ context.Context, identifier string) (*lavalink.LoadResult, error) {
	b.searchCalls = append(b.searchCalls, identifier)
	return b.searchResult, b.searchErr
}

func (b *fakeBackend) CreatePlayer(guildID string) Handle {
	if handle, ok := b.players[guildID]; ok {
		return handle
	}
	handle := &fakeHandle{}
	b.players[guildID] = handle
	return handle
}

func (b *fakeBackend) GetPlayer(guildID string) (Handle, bool) {
	handle, ok := b.players[guildID]
	if !ok {
		return nil, false
	}
	return handle, true
}

func (b *fakeBackend) DestroyPlayer(guildID string) {
	b.destroyed = append(b.destroyed, guildID)
	delete(b.players, guildID)
}

func (b *fakeBackend) Connect(guildID, channelID string) error {
	b.connects = append(b.connects, guildID+":"+channelID)
	return nil
}

func (b *fakeBackend) Disconnect(guildID string) error {
	b.disconnects = append(b.disconnects, guildID)
	return nil
}

// fakeResolver treats everything as present unless listed as missing.
type fakeResolver struct {
	missingChannels map[string]bool
	missingMessages map[string]bool
}

func (r *fakeResolver) ChannelExists(channelID string) bool {
	return !r.missingChannels[channelID]
}

func (r *fakeResolver) MessageExists(_, messageID string) bool {
	return !r.missingMessages[messageID]
}

type fakePresenter struct {
	playerCalls []*lavalink.Track
	queueCalls  [][]lavalink.Track
	err         error
}

func (p *fakePresenter) RenderPlayer(_ *Session, track *lavalink.Track) error {
	p.playerCalls = append(p.playerCalls, track)
	return p.err
}

func (p *fakePresenter) RenderQueue(_ *Session, queue []lavalink.Track) error {
	p.queueCalls = append(p.queueCalls, queue)
	return p.err
}

type fakeRoster struct {
	botID      string
	botChannel string
	counts     map[string]int
}

func (r *fakeRoster) BotUserID() string { return r.botID }

func (r *fakeRoster) BotVoiceChannel(string) (string, bool) {
	return r.botChannel, r.botChannel != ""
}

func (r *fakeRoster) VoiceMemberCount(_, channelID string) int {
	return r.counts[channelID]
}

func testSetup(n int) models.GuildSetup {
	return models.GuildSetup{
		GuildID:         fmt.Sprintf("guild-%d", n),
		ChannelID:       fmt.Sprintf("channel-%d", n),
		PlayerMessageID: fmt.Sprintf("player-msg-%d", n),
		QueueMessageID:  fmt.Sprintf("queue-msg-%d", n),
		Locale:          "en",
	}
}

func testTrack(title, author string) lavalink.Track {
	return lavalink.Track{
		Encoded: "enc-" + title,
		Info: lavalink.TrackInfo{
			Title:  title,
			Author: author,
			URI:    "https://example.com/" + title,
			Length: 215000,
		},
	}
}
