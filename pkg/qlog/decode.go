package qlog

import (
	"bytes"
	"io"
	"os"
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/matzehuels/qlogtree/pkg/errors"
)

// defaultFields is the row layout written by the qlog 0.1 wrapper.
var defaultFields = []string{"time", "category", "type", "trigger", "data"}

// Trace is a decoded qlog document.
type Trace struct {
	Version     string       `json:"qlog_version"`
	Description string       `json:"description,omitempty"`
	Connections []Connection `json:"connections"`
}

// Connection is one traced connection. Only Events is required.
type Connection struct {
	VantagePoint string   `json:"vantagepoint,omitempty"`
	ConnectionID string   `json:"connectionid,omitempty"`
	StartTime    string   `json:"starttime,omitempty"`
	Fields       []string `json:"fields,omitempty"`
	Events       []Event  `json:"-"`
}

// rawTrace mirrors Trace with undecoded event rows.
type rawTrace struct {
	Version     string          `json:"qlog_version"`
	Description string          `json:"description"`
	Connections []rawConnection `json:"connections"`
}

type rawConnection struct {
	VantagePoint string            `json:"vantagepoint"`
	ConnectionID string            `json:"connectionid"`
	StartTime    json.RawMessage   `json:"starttime"`
	Fields       []string          `json:"fields"`
	Events       []json.RawMessage `json:"events"`
}

// Events returns the first connection's events in trace order.
func (t *Trace) Events() ([]Event, error) {
	if t == nil || len(t.Connections) == 0 {
		return nil, errors.New(errors.ErrCodeTraceFormat, "trace has no connections")
	}
	return t.Connections[0].Events, nil
}

// ReadFile reads and decodes the trace at path.
func ReadFile(path string) (*Trace, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "trace %s", path)
	}
	if err != nil {
		return nil, err
	}
	return DecodeBytes(data)
}

// Decode reads a complete trace from r. It does not close r.
func Decode(r io.Reader) (*Trace, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeTraceFormat, err, "read trace")
	}
	return DecodeBytes(data)
}

// DecodeBytes decodes a (possibly compressed) trace document.
func DecodeBytes(data []byte) (*Trace, error) {
	plain, _, err := Decompress(data)
	if err != nil {
		return nil, err
	}

	var raw rawTrace
	if err := json.Unmarshal(plain, &raw); err != nil {
		return nil, errors.Wrap(errors.ErrCodeTraceFormat, err, "decode trace JSON")
	}
	if len(raw.Connections) == 0 {
		return nil, errors.New(errors.ErrCodeTraceFormat, "trace has no connections")
	}

	t := &Trace{
		Version:     raw.Version,
		Description: raw.Description,
		Connections: make([]Connection, 0, len(raw.Connections)),
	}
	for ci, rc := range raw.Connections {
		conn := Connection{
			VantagePoint: rc.VantagePoint,
			ConnectionID: rc.ConnectionID,
			StartTime:    rawString(rc.StartTime),
			Fields:       rc.Fields,
			Events:       make([]Event, 0, len(rc.Events)),
		}
		layout := rowLayout(rc.Fields)
		for i, row := range rc.Events {
			ev, err := decodeRow(row, layout)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeTraceFormat, err, "connection %d event %d", ci, i)
			}
			conn.Events = append(conn.Events, ev)
		}
		t.Connections = append(t.Connections, conn)
	}
	return t, nil
}

// layout holds the row positions of the five event columns.
type layout struct {
	time, category, name, trigger, data int
}

// rowLayout maps the connection's declared fields to column positions.
// A fields list that does not name all five columns falls back to the default.
func rowLayout(fields []string) layout {
	pos := func(fs []string, name string) int {
		for i, f := range fs {
			if f == name {
				return i
			}
		}
		return -1
	}
	l := layout{
		time:     pos(fields, "time"),
		category: pos(fields, "category"),
		name:     pos(fields, "type"),
		trigger:  pos(fields, "trigger"),
		data:     pos(fields, "data"),
	}
	if l.time < 0 || l.category < 0 || l.name < 0 || l.trigger < 0 || l.data < 0 {
		return layout{0, 1, 2, 3, 4}
	}
	return l
}

func (l layout) width() int {
	return max(l.time, l.category, l.name, l.trigger, l.data) + 1
}

func decodeRow(row json.RawMessage, l layout) (Event, error) {
	var cols []json.RawMessage
	if err := json.Unmarshal(row, &cols); err != nil {
		return Event{}, err
	}
	if len(cols) < l.width() {
		return Event{}, errors.New(errors.ErrCodeTraceFormat, "expected %d columns, got %d", l.width(), len(cols))
	}

	var ev Event
	var err error
	if ev.Time, err = decodeTime(cols[l.time]); err != nil {
		return Event{}, err
	}
	if ev.Category, err = decodeString(cols[l.category], "category"); err != nil {
		return Event{}, err
	}
	if ev.Name, err = decodeString(cols[l.name], "type"); err != nil {
		return Event{}, err
	}
	if ev.Trigger, err = decodeString(cols[l.trigger], "trigger"); err != nil {
		return Event{}, err
	}
	if ev.Data, err = decodeData(cols[l.data]); err != nil {
		return Event{}, err
	}
	return ev, nil
}

// decodeTime accepts integer, fractional, and quoted timestamps.
func decodeTime(raw json.RawMessage) (int64, error) {
	s := rawString(raw)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.New(errors.ErrCodeTraceFormat, "invalid time %s", string(raw))
	}
	return int64(f), nil
}

func decodeString(raw json.RawMessage, column string) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", errors.New(errors.ErrCodeTraceFormat, "%s must be a string, got %s", column, string(raw))
	}
	return s, nil
}

func decodeData(raw json.RawMessage) (map[string]any, error) {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return map[string]any{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var data map[string]any
	if err := dec.Decode(&data); err != nil {
		return nil, errors.New(errors.ErrCodeTraceFormat, "data must be an object, got %s", string(raw))
	}
	return data, nil
}

// rawString returns a JSON scalar as text, unquoting strings.
func rawString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}
