package goSession

import (
	"context"
	"io"
	"time"

	"github.com/MrEthical07/goSession/internal/events"
	"github.com/MrEthical07/goSession/internal/flows"
)

// EventKind is the session transition a SessionEvent records.
type EventKind = events.Kind

const (
	EventLogin   = events.KindLogin
	EventRefresh = events.KindRefresh
	EventLogout  = events.KindLogout
)

// EventOutcome says how a session transition ended.
type EventOutcome = events.Outcome

const (
	OutcomeOK           = events.OutcomeOK
	OutcomeRejected     = events.OutcomeRejected
	OutcomeUnavailable  = events.OutcomeUnavailable
	OutcomeNoCredential = events.OutcomeNoCredential
	OutcomeStoreFailure = events.OutcomeStoreFailure
)

// ErrEventsUndelivered is returned by Shutdown when buffered events could not be
// delivered before its ctx ended.
var ErrEventsUndelivered = events.ErrUndelivered

// SessionEvent is one session lifecycle record.
type SessionEvent = events.Event

// EventSink receives session events from the Client's dispatcher goroutine.
type EventSink = events.Sink

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc = events.SinkFunc

// ChannelSink writes events into a buffered channel.
type ChannelSink = events.ChannelSink

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink = events.JSONWriterSink

// NewChannelSink returns a ChannelSink with the given buffer.
func NewChannelSink(buffer int) *ChannelSink {
	return events.NewChannelSink(buffer)
}

// NewJSONWriterSink returns a sink writing JSON lines to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return events.NewJSONWriterSink(w)
}

func (c *Client) emit(ctx context.Context, e SessionEvent) {
	if c.events == nil {
		return
	}
	e.Time = time.Now().UTC()
	c.events.Emit(ctx, e)
}

func loginOutcome(f flows.LoginFailureKind) EventOutcome {
	switch f {
	case flows.LoginFailureNone:
		return OutcomeOK
	case flows.LoginFailureRejected:
		return OutcomeRejected
	case flows.LoginFailurePersist:
		return OutcomeStoreFailure
	default:
		return OutcomeUnavailable
	}
}

func refreshOutcome(f flows.RefreshFailureKind) EventOutcome {
	switch f {
	case flows.RefreshFailureNone:
		return OutcomeOK
	case flows.RefreshFailureMissing:
		return OutcomeNoCredential
	case flows.RefreshFailureRejected:
		return OutcomeRejected
	case flows.RefreshFailureStore, flows.RefreshFailurePersist:
		return OutcomeStoreFailure
	default:
		return OutcomeUnavailable
	}
}
