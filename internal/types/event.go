package types

import (
	"encoding/json"
	"fmt"
)

type EventKind int

const (
	EventStatus EventKind = iota
	EventMetadata
	EventContent
	EventError
	EventDone
)

func (k EventKind) String() string {
	switch k {
	case EventStatus:
		return "status"
	case EventMetadata:
		return "metadata"
	case EventContent:
		return "content"
	case EventError:
		return "error"
	case EventDone:
		return "done"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Terminal reports whether nothing may follow an event of this kind.
func (k EventKind) Terminal() bool {
	return k == EventError || k == EventDone
}

// DoneMarker is the payload of the final frame of a successful stream.
const DoneMarker = "[DONE]"

// Event is one item of the caller-facing stream.
type Event struct {
	Kind     EventKind
	Message  string
	Content  string
	Metadata *VideoMetadata
	Code     ErrorCode
}

func StatusEvent(msg string) Event { return Event{Kind: EventStatus, Message: msg} }

func MetadataEvent(m VideoMetadata) Event { return Event{Kind: EventMetadata, Metadata: &m} }

func ContentEvent(fragment string) Event { return Event{Kind: EventContent, Content: fragment} }

func ErrorEvent(msg string, code ErrorCode) Event {
	return Event{Kind: EventError, Message: msg, Code: code}
}

func DoneEvent() Event { return Event{Kind: EventDone} }

type statusFrame struct {
	Status string `json:"status"`
}

type metadataFrame struct {
	Metadata *VideoMetadata `json:"metadata"`
}

type contentFrame struct {
	Content string `json:"content"`
}

type errorFrame struct {
	Error     string    `json:"error"`
	ErrorCode ErrorCode `json:"errorCode,omitempty"`
}

// Payload returns the bytes that follow "data: " in the caller-facing frame.
func (e Event) Payload() ([]byte, error) {
	switch e.Kind {
	case EventStatus:
		return json.Marshal(statusFrame{Status: e.Message})
	case EventMetadata:
		return json.Marshal(metadataFrame{Metadata: e.Metadata})
	case EventContent:
		return json.Marshal(contentFrame{Content: e.Content})
	case EventError:
		f := errorFrame{Error: e.Message}
		if e.Code.Exposed() {
			f.ErrorCode = e.Code
		}
		return json.Marshal(f)
	case EventDone:
		return []byte(DoneMarker), nil
	default:
		return nil, fmt.Errorf("unknown event kind %d", int(e.Kind))
	}
}
