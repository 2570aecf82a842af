// internal/lavalink/player.go
package lavalink

import "sync"

// Player is the per-guild player handle. The queue lives here, not on the
// node: the node only ever knows the currently playing track, and the
// client feeds it the next one when a track ends.
type Player struct {
	GuildID string

	client *Client

	mu      sync.Mutex
	queue   []Track
	current *Track
}

func newPlayer(c *Client, guildID string) *Player {
	return &Player{
		GuildID: guildID,
		client:  c,
	}
}

// Enqueue appends tracks to the queue in the given order.
func (p *Player) Enqueue(tracks ...Track) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queue = append(p.queue, tracks...)
}

// Queue returns a copy of the pending tracks, current track excluded.
func (p *Player) Queue() []Track {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Track, len(p.queue))
	copy(out, p.queue)
	return out
}

// Current returns the currently playing track, or nil.
func (p *Player) Current() *Track {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return nil
	}
	track := *p.current
	return &track
}

// IsPlaying reports whether a track is currently set on the node.
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current != nil
}

// PlayNext pops the queue head and sends it to the node. It reports
// whether there was a track to play.
func (p *Player) PlayNext() (bool, error) {
	p.mu.Lock()
	if len(p.queue) == 0 {
		p.current = nil
		p.mu.Unlock()
		return false, nil
	}
	next := p.queue[0]
	p.queue = p.queue[1:]
	p.current = &next
	p.mu.Unlock()

	if err := p.client.play(p.GuildID, next.Encoded); err != nil {
		// Roll back: the handle must not claim playback the node never
		// started. The track goes back to the head so the next attempt
		// retries it.
		p.mu.Lock()
		p.current = nil
		p.queue = append([]Track{next}, p.queue...)
		p.mu.Unlock()
		return false, err
	}
	return true, nil
}

// Skip replaces the current track with the next queued one, or stops
// playback when the queue is empty.
func (p *Player) Skip() error {
	started, err := p.PlayNext()
	if err != nil {
		return err
	}
	if !started {
		return p.client.stop(p.GuildID)
	}
	return nil
}

// Stop clears the queue and stops playback on the node.
func (p *Player) Stop() error {
	p.mu.Lock()
	p.queue = nil
	p.current = nil
	p.mu.Unlock()
	return p.client.stop(p.GuildID)
}

// ClearQueue drops all pending tracks without touching the current one.
func (p *Player) ClearQueue() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queue = nil
}

// clearCurrent is called from the event loop when the node reports the
// track ended and nothing is queued.
func (p *Player) clearCurrent() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = nil
}
