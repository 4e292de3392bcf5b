package events

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"
)

// Kind is the session transition an Event records.
type Kind uint8

const (
	KindLogin Kind = iota
	KindRefresh
	KindLogout
	kindCount
)

var kindNames = [kindCount]string{
	KindLogin:   "login",
	KindRefresh: "refresh",
	KindLogout:  "logout",
}

// Kinds lists every Kind in export order.
func Kinds() []Kind {
	return []Kind{KindLogin, KindRefresh, KindLogout}
}

func (k Kind) String() string {
	if k >= kindCount {
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
	return kindNames[k]
}

func (k Kind) MarshalText() ([]byte, error) {
	if k >= kindCount {
		return nil, fmt.Errorf("events: unknown kind %d", uint8(k))
	}
	return []byte(kindNames[k]), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	for i, name := range kindNames {
		if name == string(text) {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("events: unknown kind %q", text)
}

// Outcome says how a transition ended.
type Outcome uint8

const (
	OutcomeOK Outcome = iota
	// OutcomeRejected is a backend that answered and refused the credentials.
	OutcomeRejected
	// OutcomeUnavailable is a backend that could not be reached or understood.
	OutcomeUnavailable
	// OutcomeNoCredential is a refresh attempted with nothing stored.
	OutcomeNoCredential
	// OutcomeStoreFailure is a credential store that failed to read or write.
	OutcomeStoreFailure
	outcomeCount
)

var outcomeNames = [outcomeCount]string{
	OutcomeOK:           "ok",
	OutcomeRejected:     "rejected",
	OutcomeUnavailable:  "unavailable",
	OutcomeNoCredential: "no_credential",
	OutcomeStoreFailure: "store_failure",
}

func (o Outcome) String() string {
	if o >= outcomeCount {
		return fmt.Sprintf("outcome(%d)", uint8(o))
	}
	return outcomeNames[o]
}

func (o Outcome) MarshalText() ([]byte, error) {
	if o >= outcomeCount {
		return nil, fmt.Errorf("events: unknown outcome %d", uint8(o))
	}
	return []byte(outcomeNames[o]), nil
}

func (o *Outcome) UnmarshalText(text []byte) error {
	for i, name := range outcomeNames {
		if name == string(text) {
			*o = Outcome(i)
			return nil
		}
	}
	return fmt.Errorf("events: unknown outcome %q", text)
}

// Event is one session transition.
type Event struct {
	Time      time.Time `json:"time"`
	Kind      Kind      `json:"kind"`
	Outcome   Outcome   `json:"outcome"`
	SubjectID string    `json:"subject_id,omitempty"`
	Role      string    `json:"role,omitempty"`
	// Rotated marks a refresh that also replaced the refresh credential.
	Rotated bool `json:"rotated,omitempty"`
	// Ended marks a failure after which no session is stored.
	Ended  bool   `json:"ended,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// Failed reports whether the transition did not complete.
func (e Event) Failed() bool {
	return e.Outcome != OutcomeOK
}

// Sink receives delivered events. Emit runs on the dispatcher goroutine; ctx ends
// when a Close deadline passes.
type Sink interface {
	Emit(ctx context.Context, event Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, event Event)

func (f SinkFunc) Emit(ctx context.Context, event Event) { f(ctx, event) }

// ChannelSink hands events to a reader through a buffered channel.
type ChannelSink struct {
	events chan Event
}

func NewChannelSink(buffer int) *ChannelSink {
	return &ChannelSink{events: make(chan Event, max(buffer, 1))}
}

func (s *ChannelSink) Emit(ctx context.Context, event Event) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

func (s *ChannelSink) Events() <-chan Event {
	return s.events
}

// JSONWriterSink writes one JSON object per line. Write errors are dropped.
type JSONWriterSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	if w == nil {
		return &JSONWriterSink{}
	}
	return &JSONWriterSink{enc: json.NewEncoder(w)}
}

func (s *JSONWriterSink) Emit(_ context.Context, event Event) {
	if s == nil || s.enc == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.enc.Encode(event)
}
