package player

import (
	"context"
	"errors"
	"testing"
	"time"

	"discord-music-bot/internal/lavalink"
)

type queueFixture struct {
	store     *fakeStore
	backend   *fakeBackend
	presenter *fakePresenter
	registry  *Registry
	qc        *QueueController
	handle    *fakeHandle
}

func newQueueFixture(t *testing.T, timeout time.Duration) *queueFixture {
	t.Helper()

	store := &fakeStore{}
	store.setups = append(store.setups, testSetup(1))
	backend := newFakeBackend()
	presenter := &fakePresenter{}
	registry := newTestRegistry(store, backend, &fakeResolver{})
	syncer := NewSyncer(registry, presenter)

	if _, err := registry.CreateSession(testSetup(1)); err != nil {
		t.Fatal(err)
	}

	return &queueFixture{
		store:     store,
		backend:   backend,
		presenter: presenter,
		registry:  registry,
		qc:        NewQueueController(registry, backend, syncer, timeout),
		handle:    backend.players["guild-1"],
	}
}

func TestSubmitQueryFreeTextOffersDisambiguation(t *testing.T) {
	f := newQueueFixture(t, 0)

	tracks := make([]lavalink.Track, 0, 5)
	for _, title := range []string{"one", "two", "three", "four", "five"} {
		tracks = append(tracks, testTrack(title, "lofi girl"))
	}
	f.backend.searchResult = &lavalink.LoadResult{LoadType: lavalink.LoadTypeSearch, Tracks: tracks}

	outcome, err := f.qc.SubmitQuery(context.Background(), "guild-1", "lofi beats", "alice", "vc-1")
	if err != nil {
		t.Fatal(err)
	}

	if len(f.backend.searchCalls) != 1 || f.backend.searchCalls[0] != "ytsearch:lofi beats" {
		t.Errorf("expected one rewritten search call, got %v", f.backend.searchCalls)
	}
	if len(outcome.Choices) != 5 || outcome.Token == "" {
		t.Fatalf("expected 5 choices and a token, got %+v", outcome)
	}
	if len(f.handle.Queue()) != 0 || f.handle.IsPlaying() {
		t.Error("nothing may be queued before a selection is confirmed")
	}

	// Selecting index 2 queues exactly that track with the requester.
	track, err := f.qc.ConfirmSelection(outcome.Token, 2)
	if err != nil {
		t.Fatal(err)
	}
	if track.Info.Title != "three" {
		t.Errorf("confirmed wrong track: %s", track.Info.Title)
	}

	current := f.handle.Current()
	if current == nil || current.Info.Title != "three" || current.Requester != "alice" {
		t.Errorf("expected track three playing for alice, got %+v", current)
	}
}

func TestSubmitQueryPlaylistQueuesAllInOrder(t *testing.T) {
	f := newQueueFixture(t, 0)

	playlist := []lavalink.Track{
		testTrack("intro", "band"),
		testTrack("middle", "band"),
		testTrack("outro", "band"),
	}
	f.backend.searchResult = &lavalink.LoadResult{LoadType: lavalink.LoadTypePlaylist, Tracks: playlist}

	outcome, err := f.qc.SubmitQuery(context.Background(), "guild-1", "https://example.com/watch?v=1", "bob", "vc-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(outcome.Queued) != 3 {
		t.Fatalf("expected 3 queued tracks, got %d", len(outcome.Queued))
	}

	// The player was idle: it connected, started the first track and kept
	// the rest queued in playlist order.
	if len(f.backend.connects) != 1 || f.backend.connects[0] != "guild-1:vc-1" {
		t.Errorf("expected one voice connect, got %v", f.backend.connects)
	}
	current := f.handle.Current()
	if current == nil || current.Info.Title != "intro" {
		t.Fatalf("expected intro playing, got %+v", current)
	}
	rest := f.handle.Queue()
	if len(rest) != 2 || rest[0].Info.Title != "middle" || rest[1].Info.Title != "outro" {
		t.Errorf("queue order not preserved: %+v", rest)
	}
	for _, track := range rest {
		if track.Requester != "bob" {
			t.Errorf("requester not preserved on %s", track.Info.Title)
		}
	}
}

func TestSubmitQueryEmptyResult(t *testing.T) {
	f := newQueueFixture(t, 0)
	f.backend.searchResult = &lavalink.LoadResult{LoadType: lavalink.LoadTypeEmpty}

	_, err := f.qc.SubmitQuery(context.Background(), "guild-1", "gibberish", "alice", "vc-1")
	if !errors.Is(err, ErrNoResults) {
		t.Fatalf("got %v, want ErrNoResults", err)
	}
	if len(f.handle.Queue()) != 0 || f.handle.IsPlaying() {
		t.Error("no enqueue may happen for an empty result")
	}
}

func TestSubmitQueryBackendLoadError(t *testing.T) {
	f := newQueueFixture(t, 0)
	f.backend.searchResult = &lavalink.LoadResult{
		LoadType:  lavalink.LoadTypeError,
		Exception: &lavalink.LoadException{Message: "unsupported source"},
	}

	_, err := f.qc.SubmitQuery(context.Background(), "guild-1", "https://bad.example/x", "alice", "vc-1")
	if !errors.Is(err, ErrBackendLoad) {
		t.Fatalf("got %v, want ErrBackendLoad", err)
	}
}

func TestEnqueuePreservesOrderAndRequester(t *testing.T) {
	f := newQueueFixture(t, 0)

	// Already playing: new tracks go to the back of the queue untouched.
	f.handle.Enqueue(testTrack("current", "someone"))
	if _, err := f.handle.PlayNext(); err != nil {
		t.Fatal(err)
	}

	tracks := []lavalink.Track{
		testTrack("a", "x"),
		testTrack("b", "y"),
		testTrack("c", "z"),
	}
	if err := f.qc.Enqueue("guild-1", tracks, "vc-1", "carol"); err != nil {
		t.Fatal(err)
	}

	queue := f.handle.Queue()
	if len(queue) != 3 {
		t.Fatalf("expected 3 queued tracks, got %d", len(queue))
	}
	for i, want := range []string{"a", "b", "c"} {
		if queue[i].Info.Title != want {
			t.Errorf("queue[%d] = %s, want %s", i, queue[i].Info.Title, want)
		}
		if queue[i].Requester != "carol" {
			t.Errorf("queue[%d] lost its requester", i)
		}
	}
	if len(f.backend.connects) != 0 {
		t.Error("no connect expected while already playing")
	}
	if len(f.presenter.queueCalls) == 0 {
		t.Error("queue message was not resynced after enqueue")
	}
}

func TestEnqueueWithoutPlayer(t *testing.T) {
	f := newQueueFixture(t, 0)
	f.backend.DestroyPlayer("guild-1")

	err := f.qc.Enqueue("guild-1", []lavalink.Track{testTrack("a", "x")}, "vc-1", "dave")
	if !errors.Is(err, ErrNoActivePlayer) {
		t.Fatalf("got %v, want ErrNoActivePlayer", err)
	}
}

func TestSelectionTimeoutDiscardsPrompt(t *testing.T) {
	f := newQueueFixture(t, 20*time.Millisecond)
	f.backend.searchResult = &lavalink.LoadResult{
		LoadType: lavalink.LoadTypeSearch,
		Tracks:   []lavalink.Track{testTrack("one", "a"), testTrack("two", "b")},
	}

	outcome, err := f.qc.SubmitQuery(context.Background(), "guild-1", "something", "alice", "vc-1")
	if err != nil {
		t.Fatal(err)
	}

	cleaned := make(chan struct{})
	f.qc.BindPrompt(outcome.Token, func() { close(cleaned) })

	select {
	case <-cleaned:
	case <-time.After(time.Second):
		t.Fatal("prompt cleanup never ran")
	}

	if _, err := f.qc.ConfirmSelection(outcome.Token, 0); !errors.Is(err, ErrSelectionExpired) {
		t.Fatalf("got %v, want ErrSelectionExpired", err)
	}
	if len(f.handle.Queue()) != 0 || f.handle.IsPlaying() {
		t.Error("expired selection must leave no side effect")
	}
}

func TestConfirmSelectionWinsRaceAgainstTimeout(t *testing.T) {
	f := newQueueFixture(t, time.Hour)
	f.backend.searchResult = &lavalink.LoadResult{
		LoadType: lavalink.LoadTypeSearch,
		Tracks:   []lavalink.Track{testTrack("one", "a")},
	}

	outcome, err := f.qc.SubmitQuery(context.Background(), "guild-1", "something", "alice", "vc-1")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := f.qc.ConfirmSelection(outcome.Token, 0); err != nil {
		t.Fatal(err)
	}
	// A second confirm behaves like an expired token.
	if _, err := f.qc.ConfirmSelection(outcome.Token, 0); !errors.Is(err, ErrSelectionExpired) {
		t.Fatalf("got %v, want ErrSelectionExpired", err)
	}
}

func TestDisconnectWhileIdleLeavesVoiceDirectly(t *testing.T) {
	f := newQueueFixture(t, 0)

	// Connected with tracks queued but nothing current: the node will
	// emit no end event, so the controller must leave voice itself.
	f.handle.Enqueue(testTrack("leftover", "x"))

	if err := f.qc.Disconnect("guild-1"); err != nil {
		t.Fatal(err)
	}

	if len(f.backend.disconnects) != 1 || f.backend.disconnects[0] != "guild-1" {
		t.Fatalf("expected one voice disconnect, got %v", f.backend.disconnects)
	}
	if len(f.handle.Queue()) != 0 {
		t.Error("queue must be cleared on disconnect")
	}
	if len(f.presenter.playerCalls) != 1 || f.presenter.playerCalls[0] != nil {
		t.Errorf("expected one idle player render, got %v", f.presenter.playerCalls)
	}
	if len(f.presenter.queueCalls) != 1 || len(f.presenter.queueCalls[0]) != 0 {
		t.Errorf("expected one empty queue render, got %v", f.presenter.queueCalls)
	}
}

func TestDisconnectWhilePlayingStopsThroughNode(t *testing.T) {
	f := newQueueFixture(t, 0)

	f.handle.Enqueue(testTrack("one", "a"))
	if _, err := f.handle.PlayNext(); err != nil {
		t.Fatal(err)
	}

	if err := f.qc.Disconnect("guild-1"); err != nil {
		t.Fatal(err)
	}

	if f.handle.IsPlaying() || len(f.handle.Queue()) != 0 {
		t.Error("player not stopped")
	}
	// The node's end event drives the voice leave on this path.
	if len(f.backend.disconnects) != 0 {
		t.Errorf("unexpected direct disconnect: %v", f.backend.disconnects)
	}
}

func TestDisconnectWithoutPlayerIsNoOp(t *testing.T) {
	f := newQueueFixture(t, 0)
	f.backend.DestroyPlayer("guild-1")

	if err := f.qc.Disconnect("guild-1"); err != nil {
		t.Fatal(err)
	}
	if len(f.backend.disconnects) != 0 {
		t.Errorf("unexpected disconnect: %v", f.backend.disconnects)
	}
}

func TestIsURL(t *testing.T) {
	tests := []struct {
		query string
		want  bool
	}{
		{"https://example.com/watch?v=1", true},
		{"http://example.com", true},
		{"lofi beats", false},
		{"https://", false},
		{"ftp://example.com/file", false},
	}
	for _, tt := range tests {
		if got := isURL(tt.query); got != tt.want {
			t.Errorf("isURL(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}
}
