package relay

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"iter"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/hornsiq/sentinel/backend/internal/model/chat"
)

// EventKind tags a parsed stream line.
type EventKind int

const (
	EventTextDelta EventKind = iota + 1
	EventCitation
	EventUserMessageID
)

func (k EventKind) String() string {
	switch k {
	case EventTextDelta:
		return "message_delta"
	case EventCitation:
		return "citation_delta"
	case EventUserMessageID:
		return "user_message_id"
	default:
		return "unknown"
	}
}

// Event is one item of the backend's newline-delimited response.
type Event struct {
	Kind          EventKind
	Text          string
	Source        chat.Source
	UserMessageID int
}

const (
	objMessageDelta  = "message_delta"
	objCitationDelta = "citation_delta"

	unknownTitle = "Unknown"
	maxLineBytes = 1 << 20
)

type citedDocument struct {
	SemanticIdentifier string `json:"semantic_identifier"`
	Title              string `json:"title"`
	Link               string `json:"link"`
	Blurb              string `json:"blurb"`
}

func (d citedDocument) source() chat.Source {
	title := d.SemanticIdentifier
	if title == "" {
		title = d.Title
	}
	if title == "" {
		title = unknownTitle
	}
	return chat.Source{Title: title, Link: d.Link, Blurb: d.Blurb}
}

type streamLine struct {
	UserMessageID *int `json:"user_message_id"`
	Obj           *struct {
		Type      string          `json:"type"`
		Content   string          `json:"content"`
		Document  *citedDocument  `json:"document"`
		Documents []citedDocument `json:"documents"`
	} `json:"obj"`
}

// parseLine decodes one line into zero or more events. ok is false when the
// line is not valid JSON.
func parseLine(line []byte) (events []Event, ok bool) {
	var decoded streamLine
	if err := json.Unmarshal(line, &decoded); err != nil {
		return nil, false
	}

	if decoded.UserMessageID != nil {
		events = append(events, Event{Kind: EventUserMessageID, UserMessageID: *decoded.UserMessageID})
	}

	obj := decoded.Obj
	if obj == nil {
		return events, true
	}

	switch obj.Type {
	case objMessageDelta:
		events = append(events, Event{Kind: EventTextDelta, Text: obj.Content})
	case objCitationDelta:
		if obj.Document != nil {
			events = append(events, Event{Kind: EventCitation, Source: obj.Document.source()})
		}
		for _, doc := range obj.Documents {
			events = append(events, Event{Kind: EventCitation, Source: doc.source()})
		}
	}
	return events, true
}

// Stream is a finite, consume-once sequence of events read from a response body.
type Stream struct {
	body     io.ReadCloser
	err      error
	consumed bool
}

// NewStream wraps body. Close releases it.
func NewStream(body io.ReadCloser) *Stream {
	return &Stream{body: body}
}

// Events yields parsed events in arrival order. Lines that fail to parse or
// exceed maxLineBytes are skipped. A second call yields nothing.
func (s *Stream) Events() iter.Seq[Event] {
	return func(yield func(Event) bool) {
		if s.consumed {
			return
		}
		s.consumed = true

		reader := bufio.NewReaderSize(s.body, maxLineBytes)
		for {
			raw, oversized, err := readLine(reader)
			if line := bytes.TrimSpace(raw); !oversized && len(line) > 0 {
				if events, ok := parseLine(line); ok {
					for _, ev := range events {
						if !yield(ev) {
							return
						}
					}
				}
			}

			if err != nil {
				if !errors.Is(err, io.EOF) {
					s.err = goerr.Wrap(err, "failed to read backend stream")
				}
				return
			}
		}
	}
}

// readLine returns the next line. A line that does not fit in the reader's
// buffer is drained up to its newline and reported as oversized.
func readLine(r *bufio.Reader) ([]byte, bool, error) {
	line, err := r.ReadSlice('\n')
	if !errors.Is(err, bufio.ErrBufferFull) {
		return line, false, err
	}
	for errors.Is(err, bufio.ErrBufferFull) {
		_, err = r.ReadSlice('\n')
	}
	return nil, true, err
}

// Err reports a read failure encountered by Events.
func (s *Stream) Err() error {
	return s.err
}

// Close releases the underlying body.
func (s *Stream) Close() error {
	return s.body.Close()
}

// Aggregate is the flattened view of a full stream.
type Aggregate struct {
	Message       string
	Sources       []chat.Source
	UserMessageID *int
}

// Aggregator accumulates events into an Aggregate.
type Aggregator struct {
	text          strings.Builder
	sources       []chat.Source
	userMessageID *int
}

// Add folds ev into the aggregate. Only the first user message id is kept.
func (a *Aggregator) Add(ev Event) {
	switch ev.Kind {
	case EventTextDelta:
		a.text.WriteString(ev.Text)
	case EventCitation:
		a.sources = append(a.sources, ev.Source)
	case EventUserMessageID:
		if a.userMessageID == nil {
			id := ev.UserMessageID
			a.userMessageID = &id
		}
	}
}

// Result returns the aggregate so far. Sources is never nil.
func (a *Aggregator) Result() Aggregate {
	sources := a.sources
	if sources == nil {
		sources = []chat.Source{}
	}
	return Aggregate{
		Message:       a.text.String(),
		Sources:       sources,
		UserMessageID: a.userMessageID,
	}
}

// Collect drains events into an Aggregate.
func Collect(events iter.Seq[Event]) Aggregate {
	var agg Aggregator
	for ev := range events {
		agg.Add(ev)
	}
	return agg.Result()
}
