package ask

import (
	"context"

	"go.uber.org/zap"

	domainask "github.com/kailas-cloud/askdex/internal/domain/ask"
)

// EmitFunc delivers one event to the client. A returned error means the
// client is gone and the stream must unwind.
type EmitFunc func(domainask.Event) error

// Streamer enforces the event ordering contract over a raw sink:
// Retrieval? Token* (Stats Done | Error), exactly one terminal event,
// nothing after the terminal or after cancellation. Out-of-order
// events are dropped, not reordered.
type Streamer struct {
	ctx        context.Context
	sink       EmitFunc
	logger     *zap.Logger
	started    bool
	statsSent  bool
	terminated bool
}

// NewStreamer wraps a sink with ordering enforcement. Not safe for
// concurrent use; each request owns one Streamer.
func NewStreamer(ctx context.Context, sink EmitFunc, logger *zap.Logger) *Streamer {
	return &Streamer{ctx: ctx, sink: sink, logger: logger}
}

// Emit forwards an event if the grammar permits it. Returns the sink
// error, which callers treat as a disconnected client.
func (st *Streamer) Emit(e domainask.Event) error {
	if st.terminated {
		st.logger.Debug("event after terminal dropped", zap.String("type", string(e.Type)))
		return nil
	}
	if st.ctx.Err() != nil {
		// The client cancelled; nothing more may be written.
		return st.ctx.Err()
	}

	switch e.Type {
	case domainask.EventRetrieval:
		if st.started {
			st.logger.Warn("retrieval event not first, dropped")
			return nil
		}
	case domainask.EventToken:
		if st.statsSent {
			st.logger.Warn("token after stats dropped")
			return nil
		}
	case domainask.EventStats:
		if st.statsSent {
			st.logger.Warn("duplicate stats dropped")
			return nil
		}
		st.statsSent = true
	case domainask.EventDone:
		// A successful terminal is always Stats then Done; a producer
		// that skips stats gets an empty one synthesized.
		if !st.statsSent {
			st.logger.Warn("done without stats, synthesizing empty stats")
			st.statsSent = true
			st.started = true
			if err := st.sink(domainask.StatsEvent(domainask.Stats{})); err != nil {
				return err
			}
		}
		st.terminated = true
	case domainask.EventError:
		st.terminated = true
	}

	st.started = true
	return st.sink(e)
}

// Terminated reports whether a terminal event has been emitted.
func (st *Streamer) Terminated() bool { return st.terminated }
