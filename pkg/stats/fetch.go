package stats

import (
	"slices"

	"github.com/matzehuels/qlogtree/pkg/classify"
	"github.com/matzehuels/qlogtree/pkg/qlog"
)

// Fetch is one completed request.
type Fetch struct {
	StreamID string             `json:"stream_id"`
	URI      string             `json:"uri"`
	Start    int64              `json:"start"`
	End      int64              `json:"end"`
	Duration int64              `json:"duration"`
	Colors   classify.ColorPair `json:"colors"`
}

// FetchTimes pairs every GET sent by the client with the FIN that closes its
// stream. A GET opens a request; the first FIN for an open request closes it.
// Requests that never finish are left out. The result is sorted by stream id.
func FetchTimes(events []qlog.Event) []Fetch {
	type open struct {
		uri   string
		start int64
	}
	active := make(map[string]open)
	done := make(map[string]Fetch)

	for _, ev := range events {
		if ev.Is(qlog.CategoryHTTP, qlog.EventGet) && ev.Trigger == qlog.TriggerTX {
			id, ok := ev.String("stream_id")
			if !ok {
				continue
			}
			uri, _ := ev.String("uri")
			active[id] = open{uri: uri, start: ev.Time}
			continue
		}
		id, ok := finished(ev)
		if !ok {
			continue
		}
		req, ok := active[id]
		if !ok {
			continue
		}
		delete(active, id)
		done[id] = Fetch{
			StreamID: id,
			URI:      req.uri,
			Start:    req.start,
			End:      ev.Time,
			Duration: ev.Time - req.start,
			Colors:   classify.Classify(req.uri),
		}
	}

	out := make([]Fetch, 0, len(done))
	for _, f := range done {
		out = append(out, f)
	}
	slices.SortFunc(out, func(a, b Fetch) int { return compareStreamIDs(a.StreamID, b.StreamID) })
	return out
}

// LastEnd returns the latest end time of fetches.
func LastEnd(fetches []Fetch) int64 {
	var last int64
	for _, f := range fetches {
		last = max(last, f.End)
	}
	return last
}
