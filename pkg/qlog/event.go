package qlog

import (
	"strconv"

	json "github.com/goccy/go-json"
)

// Event categories and names used by the HTTP/3 prioritization tooling.
const (
	CategoryHTTP = "HTTP"

	EventGet               = "GET"
	EventPriorityChange    = "PRIORITY_CHANGE"
	EventDataChunk         = "DATA_CHUNK"
	EventStreamStateUpdate = "STREAM_STATE_UPDATE"

	TriggerTX  = "TX"
	TriggerRX  = "RX"
	TriggerFIN = "FIN"
)

// Event is one trace row. Events are immutable once decoded and their slice
// order is the trace order.
type Event struct {
	Time     int64          // milliseconds since connection start
	Category string         // e.g. "HTTP"
	Name     string         // e.g. "GET", "PRIORITY_CHANGE"
	Trigger  string         // direction or trigger, e.g. "TX", "FIN"
	Data     map[string]any // event payload; numbers are json.Number
}

// Is reports whether the event has the given category and name.
func (e Event) Is(category, name string) bool {
	return e.Category == category && e.Name == name
}

// Value returns the raw payload value stored under key.
func (e Event) Value(key string) (any, bool) {
	v, ok := e.Data[key]
	return v, ok
}

// String returns the payload value under key as a string.
// Numbers are rendered in their literal form, so a stream id logged as 4 or
// "4" reads back as "4". Other value types report false.
func (e Event) String(key string) (string, bool) {
	v, ok := e.Data[key]
	if !ok {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	default:
		return "", false
	}
}

// Int returns the payload value under key as an integer.
// String values are parsed, since some writers quote numeric fields.
func (e Event) Int(key string) (int64, bool) {
	s, ok := e.String(key)
	if !ok {
		return 0, false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return int64(f), true
}

// Filter returns the events matching category and name, in trace order.
func Filter(events []Event, category, name string) []Event {
	var out []Event
	for _, e := range events {
		if e.Is(category, name) {
			out = append(out, e)
		}
	}
	return out
}
