// Package stats derives per-stream timing views from a qlog trace.
//
// Three views are offered, each over the client's events:
//
//   - [FetchTimes]: start and end of every request, for the waterfall
//   - [CompletionTimes]: when each requested stream finished, for the bar chart
//   - [DataChunks]: the sequence of DATA chunks with their scheduling weights
//
// Every view colors streams with the same resource classification as the
// dependency tree timeline.
package stats

import (
	"cmp"
	"strconv"

	"github.com/matzehuels/qlogtree/pkg/qlog"
)

// compareStreamIDs orders numeric ids numerically, before any non-numeric ids.
func compareStreamIDs(a, b string) int {
	na, errA := strconv.ParseInt(a, 10, 64)
	nb, errB := strconv.ParseInt(b, 10, 64)
	switch {
	case errA == nil && errB == nil:
		return cmp.Compare(na, nb)
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	default:
		return cmp.Compare(a, b)
	}
}

// requests returns the uri of every GET sent by the client, by stream id.
// A later GET on the same stream wins.
func requests(events []qlog.Event) map[string]string {
	uris := make(map[string]string)
	for _, ev := range events {
		if !ev.Is(qlog.CategoryHTTP, qlog.EventGet) || ev.Trigger != qlog.TriggerTX {
			continue
		}
		id, ok := ev.String("stream_id")
		if !ok {
			continue
		}
		uri, _ := ev.String("uri")
		uris[id] = uri
	}
	return uris
}

// finished reports whether ev closes a stream and returns the stream id.
func finished(ev qlog.Event) (string, bool) {
	if !ev.Is(qlog.CategoryHTTP, qlog.EventStreamStateUpdate) || ev.Trigger != qlog.TriggerFIN {
		return "", false
	}
	return ev.String("id")
}
