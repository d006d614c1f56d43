package stats

import (
	"slices"

	"github.com/matzehuels/qlogtree/pkg/classify"
	"github.com/matzehuels/qlogtree/pkg/errors"
	"github.com/matzehuels/qlogtree/pkg/qlog"
)

// Completion is the time at which a requested stream finished.
type Completion struct {
	StreamID string             `json:"stream_id"`
	URI      string             `json:"uri"`
	End      int64              `json:"end"`
	Colors   classify.ColorPair `json:"colors"`
}

// Label returns "<stream id>: <uri>", the bar's axis label.
func (c Completion) Label() string {
	return c.StreamID + ": " + c.URI
}

// CompletionTimes returns the last FIN time of every closed stream, sorted
// by stream id. A closed stream that was never requested is a TRACE_FORMAT
// error, since the chart could not label it.
func CompletionTimes(events []qlog.Event) ([]Completion, error) {
	uris := requests(events)
	ends := make(map[string]int64)
	for _, ev := range events {
		if id, ok := finished(ev); ok {
			ends[id] = ev.Time
		}
	}

	out := make([]Completion, 0, len(ends))
	for id, end := range ends {
		uri, ok := uris[id]
		if !ok {
			return nil, errors.New(errors.ErrCodeTraceFormat, "mismatch in GET requests and closed streams: stream %s closed without a GET", id)
		}
		out = append(out, Completion{
			StreamID: id,
			URI:      uri,
			End:      end,
			Colors:   classify.Classify(uri),
		})
	}
	slices.SortFunc(out, func(a, b Completion) int { return compareStreamIDs(a.StreamID, b.StreamID) })
	return out, nil
}
