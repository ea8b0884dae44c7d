package ask

import (
	"context"
	"testing"

	"go.uber.org/zap"

	domainask "github.com/kailas-cloud/askdex/internal/domain/ask"
)

func newTestStreamer(ctx context.Context) (*Streamer, *collector) {
	c := newCollector()
	return NewStreamer(ctx, c.emit, zap.NewNop()), c
}

func TestStreamer_WellFormedSequencePasses(t *testing.T) {
	st, c := newTestStreamer(context.Background())

	events := []domainask.Event{
		domainask.Retrieval(3),
		domainask.Token("a"),
		domainask.Token("b"),
		domainask.StatsEvent(domainask.Stats{ChunksRetrieved: 3}),
		domainask.Done(),
	}
	for _, e := range events {
		if err := st.Emit(e); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assertTypes(t, c.types(), []domainask.EventType{
		domainask.EventRetrieval,
		domainask.EventToken,
		domainask.EventToken,
		domainask.EventStats,
		domainask.EventDone,
	})
	if !st.Terminated() {
		t.Error("expected terminated streamer")
	}
}

func TestStreamer_DropsEventsAfterTerminal(t *testing.T) {
	st, c := newTestStreamer(context.Background())

	_ = st.Emit(domainask.Error("internal_error", "boom"))
	_ = st.Emit(domainask.Token("late"))
	_ = st.Emit(domainask.Done())

	assertTypes(t, c.types(), []domainask.EventType{domainask.EventError})
}

func TestStreamer_CollapsesDuplicateTerminal(t *testing.T) {
	st, c := newTestStreamer(context.Background())

	_ = st.Emit(domainask.Done())
	_ = st.Emit(domainask.Done())

	terminals := 0
	for _, e := range c.events {
		if e.Terminal() {
			terminals++
		}
	}
	if terminals != 1 {
		t.Fatalf("expected 1 terminal, got %d", terminals)
	}
}

func TestStreamer_DropsLateRetrieval(t *testing.T) {
	st, c := newTestStreamer(context.Background())

	_ = st.Emit(domainask.Token("a"))
	_ = st.Emit(domainask.Retrieval(3))

	assertTypes(t, c.types(), []domainask.EventType{domainask.EventToken})
}

func TestStreamer_DropsTokenAfterStats(t *testing.T) {
	st, c := newTestStreamer(context.Background())

	_ = st.Emit(domainask.StatsEvent(domainask.Stats{}))
	_ = st.Emit(domainask.Token("late"))
	_ = st.Emit(domainask.Done())

	assertTypes(t, c.types(), []domainask.EventType{
		domainask.EventStats,
		domainask.EventDone,
	})
}

func TestStreamer_DropsDuplicateStats(t *testing.T) {
	st, c := newTestStreamer(context.Background())

	_ = st.Emit(domainask.StatsEvent(domainask.Stats{ChunksRetrieved: 1}))
	_ = st.Emit(domainask.StatsEvent(domainask.Stats{ChunksRetrieved: 2}))

	assertTypes(t, c.types(), []domainask.EventType{domainask.EventStats})
}

func TestStreamer_NothingAfterCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	st, c := newTestStreamer(ctx)

	_ = st.Emit(domainask.Token("a"))
	cancel()

	if err := st.Emit(domainask.Token("b")); err == nil {
		t.Fatal("expected context error after cancellation")
	}
	if err := st.Emit(domainask.Done()); err == nil {
		t.Fatal("expected context error for terminal after cancellation")
	}

	assertTypes(t, c.types(), []domainask.EventType{domainask.EventToken})
}

func TestStreamer_SinkErrorPropagates(t *testing.T) {
	c := newCollector()
	c.failAt = 0
	c.err = context.Canceled
	st := NewStreamer(context.Background(), c.emit, zap.NewNop())

	if err := st.Emit(domainask.Token("a")); err == nil {
		t.Fatal("expected sink error")
	}
}

func TestStreamer_SynthesizesStatsBeforeBareDone(t *testing.T) {
	st, c := newTestStreamer(context.Background())

	if err := st.Emit(domainask.Token("a")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := st.Emit(domainask.Done()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertTypes(t, c.types(), []domainask.EventType{
		domainask.EventToken,
		domainask.EventStats,
		domainask.EventDone,
	})
	if c.events[1].Stats == nil || c.events[1].Stats.TokensUsed != 0 {
		t.Errorf("synthesized stats = %+v, want empty", c.events[1].Stats)
	}
	if !st.Terminated() {
		t.Error("Terminated() = false after done")
	}
}
