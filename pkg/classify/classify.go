// Package classify assigns fill and border colors to requested resources.
//
// A resource is classified by the extension of its URI. [Build] scans the
// HTTP GET events of a trace once and produces an immutable [Assignment]
// from stream id to [ColorPair]; the renderer looks request nodes up in it.
//
//	colors := classify.Build(events)
//	pair, ok := colors.Lookup("4")
package classify

import (
	"maps"
	"path"
	"strings"

	"github.com/matzehuels/qlogtree/pkg/qlog"
)

// ColorPair is the fill and border color of a rendered request node.
type ColorPair struct {
	Fill   string `json:"fill"`
	Border string `json:"border"`
}

// Resource kinds, used for the timeline legend.
const (
	KindDocument   = "document"
	KindScript     = "script"
	KindStylesheet = "stylesheet"
	KindFont       = "font"
	KindImage      = "image"
	KindVideo      = "video"
	KindText       = "text"
	KindOther      = "other"
)

// Fallback is the pair for extensions outside the table.
var Fallback = ColorPair{Fill: "#FFFFFF", Border: "#FF0000"}

var palette = map[string]ColorPair{
	KindDocument:   {Fill: "#e1d5e7", Border: "#9f7fae"},
	KindScript:     {Fill: "#fff2cc", Border: "#dabd65"},
	KindStylesheet: {Fill: "#d5e8d4", Border: "#86b56c"},
	KindFont:       {Fill: "#f8cecc", Border: "#b85450"},
	KindImage:      {Fill: "#dae8fc", Border: "#7998c5"},
	KindVideo:      {Fill: "#fad7ac", Border: "#b46504"},
	KindText:       {Fill: "#f5b449", Border: "#3971ed"},
	KindOther:      Fallback,
}

// Extensions are matched case-sensitively.
var kinds = map[string]string{
	".html":  KindDocument,
	".js":    KindScript,
	".css":   KindStylesheet,
	".odt":   KindFont,
	".ttf":   KindFont,
	".woff":  KindFont,
	".woff2": KindFont,
	".png":   KindImage,
	".jpg":   KindImage,
	".jpeg":  KindImage,
	".gif":   KindImage,
	".mp4":   KindVideo,
	".webm":  KindVideo,
	".txt":   KindText,
}

// Kinds lists the resource kinds in legend order.
var Kinds = []string{
	KindDocument, KindScript, KindStylesheet, KindFont,
	KindImage, KindVideo, KindText, KindOther,
}

// Kind names the resource group of an extension (including the dot).
func Kind(ext string) string {
	if k, ok := kinds[ext]; ok {
		return k
	}
	return KindOther
}

// Palette returns the color pair of a kind. Unknown kinds get [Fallback].
func Palette(kind string) ColorPair {
	if p, ok := palette[kind]; ok {
		return p
	}
	return Fallback
}

// Normalize appends "index.html" to URIs naming a directory.
func Normalize(uri string) string {
	if strings.HasSuffix(uri, "/") {
		return uri + "index.html"
	}
	return uri
}

// Classify returns the color pair for uri. It is total: every input,
// including the empty string, maps to a pair.
func Classify(uri string) ColorPair {
	return Palette(KindOf(uri))
}

// KindOf returns the resource kind of uri.
func KindOf(uri string) string {
	return Kind(path.Ext(Normalize(uri)))
}

// Assignment maps stream ids to color pairs. It is built once by [Build]
// and never modified afterwards.
type Assignment struct {
	pairs map[string]ColorPair
	kinds map[string]string
}

// Build scans the HTTP GET events and classifies each request's URI.
// A later GET on the same stream overwrites an earlier one. Events without
// a stream_id or uri are skipped.
func Build(events []qlog.Event) Assignment {
	a := Assignment{
		pairs: make(map[string]ColorPair),
		kinds: make(map[string]string),
	}
	for _, ev := range events {
		if !ev.Is(qlog.CategoryHTTP, qlog.EventGet) {
			continue
		}
		id, ok := ev.String("stream_id")
		if !ok {
			continue
		}
		uri, ok := ev.String("uri")
		if !ok {
			continue
		}
		kind := KindOf(uri)
		a.pairs[id] = Palette(kind)
		a.kinds[id] = kind
	}
	return a
}

// Skipped returns the GET events [Build] ignores for lack of a stream_id or uri.
func Skipped(events []qlog.Event) []qlog.Event {
	var out []qlog.Event
	for _, ev := range events {
		if !ev.Is(qlog.CategoryHTTP, qlog.EventGet) {
			continue
		}
		_, hasID := ev.String("stream_id")
		_, hasURI := ev.String("uri")
		if !hasID || !hasURI {
			out = append(out, ev)
		}
	}
	return out
}

// Lookup returns the color pair assigned to stream id.
func (a Assignment) Lookup(id string) (ColorPair, bool) {
	p, ok := a.pairs[id]
	return p, ok
}

// KindOf returns the resource kind assigned to stream id.
func (a Assignment) KindOf(id string) (string, bool) {
	k, ok := a.kinds[id]
	return k, ok
}

// Len returns the number of classified streams.
func (a Assignment) Len() int {
	return len(a.pairs)
}

// Pairs returns a copy of the stream id to color pair mapping.
func (a Assignment) Pairs() map[string]ColorPair {
	return maps.Clone(a.pairs)
}
