package player

import (
	"errors"
	"fmt"
	"testing"

	"discord-music-bot/internal/lavalink"
)

func TestTrackStartRecordsHistoryAndResyncs(t *testing.T) {
	store := &fakeStore{}
	store.setups = append(store.setups, testSetup(1))
	backend := newFakeBackend()
	presenter := &fakePresenter{}
	history := &fakeHistory{}
	registry := newTestRegistry(store, backend, &fakeResolver{})
	handler := NewEventHandler(registry, backend, history, NewSyncer(registry, presenter))

	session, err := registry.CreateSession(testSetup(1))
	if err != nil {
		t.Fatal(err)
	}

	track := testTrack("song", "artist")
	handler.onTrackStart(lavalink.TrackStartEvent{GuildID: "guild-1", Track: track})

	if len(history.entries) != 1 {
		t.Fatalf("expected one history entry, got %d", len(history.entries))
	}
	entry := history.entries[0]
	if entry.GuildID != "guild-1" || entry.Author != "artist" || entry.Title != "song" {
		t.Errorf("history entry mismatch: %+v", entry)
	}

	if session.LastPlayed == nil || session.LastPlayed.Info.Title != "song" {
		t.Error("session lastPlayed not updated")
	}
	if len(presenter.playerCalls) != 1 || presenter.playerCalls[0] == nil {
		t.Error("player message not resynced to the playing state")
	}
	if len(presenter.queueCalls) != 1 {
		t.Error("queue message not resynced")
	}
}

func TestQueueEndDisconnectsAndRendersIdle(t *testing.T) {
	store := &fakeStore{}
	store.setups = append(store.setups, testSetup(1))
	backend := newFakeBackend()
	presenter := &fakePresenter{}
	registry := newTestRegistry(store, backend, &fakeResolver{})
	handler := NewEventHandler(registry, backend, &fakeHistory{}, NewSyncer(registry, presenter))

	if _, err := registry.CreateSession(testSetup(1)); err != nil {
		t.Fatal(err)
	}

	handler.onQueueEnd(lavalink.QueueEndEvent{GuildID: "guild-1"})

	if len(backend.disconnects) != 1 || backend.disconnects[0] != "guild-1" {
		t.Errorf("expected voice disconnect, got %v", backend.disconnects)
	}
	if len(presenter.playerCalls) != 1 || presenter.playerCalls[0] != nil {
		t.Error("player message not rendered idle")
	}
	if len(presenter.queueCalls) != 1 || len(presenter.queueCalls[0]) != 0 {
		t.Error("queue message not rendered empty")
	}
}

func TestResyncWithStaleMessageDropsSetup(t *testing.T) {
	store := &fakeStore{}
	store.setups = append(store.setups, testSetup(1))
	backend := newFakeBackend()
	presenter := &fakePresenter{err: fmt.Errorf("edit failed: %w", ErrMessageNotFound)}
	registry := newTestRegistry(store, backend, &fakeResolver{})
	syncer := NewSyncer(registry, presenter)

	session, err := registry.CreateSession(testSetup(1))
	if err != nil {
		t.Fatal(err)
	}

	syncer.SyncQueue(session, nil)

	if len(store.deleted) != 1 || store.deleted[0] != "guild-1" {
		t.Errorf("expected stale setup deletion, got %v", store.deleted)
	}
	if _, ok := registry.Get("guild-1"); ok {
		t.Error("session must be dropped after a stale-message resync")
	}
	// The backend player is left for explicit cleanup on guild removal.
	if len(backend.destroyed) != 0 {
		t.Error("self-healing must not destroy the backend player")
	}
}

func TestResyncOtherErrorsKeepSetup(t *testing.T) {
	store := &fakeStore{}
	store.setups = append(store.setups, testSetup(1))
	backend := newFakeBackend()
	presenter := &fakePresenter{err: errors.New("rate limited")}
	registry := newTestRegistry(store, backend, &fakeResolver{})
	syncer := NewSyncer(registry, presenter)

	session, err := registry.CreateSession(testSetup(1))
	if err != nil {
		t.Fatal(err)
	}

	syncer.SyncPlayer(session, nil)

	if len(store.deleted) != 0 {
		t.Errorf("transient errors must not delete the setup, got %v", store.deleted)
	}
	if _, ok := registry.Get("guild-1"); !ok {
		t.Error("session must survive a transient resync failure")
	}
}
