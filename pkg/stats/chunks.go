package stats

import (
	"fmt"

	"github.com/matzehuels/qlogtree/pkg/classify"
	"github.com/matzehuels/qlogtree/pkg/qlog"
)

// Chunk is one DATA frame as scheduled by the sender.
type Chunk struct {
	Time     int64              `json:"time"`
	StreamID string             `json:"stream_id"`
	Weight   int64              `json:"weight"`
	Bytes    int64              `json:"bytes"`
	Colors   classify.ColorPair `json:"colors"`
}

// PaddedWeight returns the weight zero-padded to three digits.
func (c Chunk) PaddedWeight() string {
	return fmt.Sprintf("%03d", c.Weight)
}

// DataChunks returns every HTTP DATA_CHUNK event in trace order. Streams are
// colored by the resource their GET requested, when one was logged.
func DataChunks(events []qlog.Event) []Chunk {
	colors := classify.Build(events)
	var out []Chunk
	for _, ev := range events {
		if !ev.Is(qlog.CategoryHTTP, qlog.EventDataChunk) {
			continue
		}
		id, _ := ev.String("stream_id")
		weight, _ := ev.Int("weight")
		size, _ := ev.Int("byte_length")
		pair, ok := colors.Lookup(id)
		if !ok {
			pair = classify.Fallback
		}
		out = append(out, Chunk{
			Time:     ev.Time,
			StreamID: id,
			Weight:   weight,
			Bytes:    size,
			Colors:   pair,
		})
	}
	return out
}
