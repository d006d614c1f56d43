// Package timeline assembles rendered dependency tree snapshots into a single
// HTML document.
//
// Frames are laid out left to right without wrapping, in extraction order.
// Each frame shows the inlined SVG with the snapshot's timestamp as a heading
// and its trigger underneath:
//
//	html, err := timeline.Assemble(timeline.Document{
//	    Title:  "client.qlog",
//	    Frames: frames,
//	    Legend: timeline.Legend(),
//	})
package timeline

import (
	"bytes"
	"fmt"
	"html/template"
	"sync"

	"github.com/matzehuels/qlogtree/pkg/classify"
	"github.com/matzehuels/qlogtree/pkg/errors"
)

// DefaultFileName is the timeline written when no output name is given.
const DefaultFileName = "dep_tree_timeline.html"

// Frame is one rendered snapshot.
type Frame struct {
	Index   int
	Time    int64
	Trigger string
	SVG     []byte
}

// LegendEntry describes the colors of one resource kind.
type LegendEntry struct {
	Kind string
	classify.ColorPair
}

// Document is the input of [Assemble].
type Document struct {
	Title  string
	RunID  string
	Frames []Frame
	Legend []LegendEntry
}

// Legend returns one entry per resource kind, in legend order.
func Legend() []LegendEntry {
	out := make([]LegendEntry, 0, len(classify.Kinds))
	for _, k := range classify.Kinds {
		out = append(out, LegendEntry{Kind: k, ColorPair: classify.Palette(k)})
	}
	return out
}

// SnapshotFileName returns the per-snapshot artifact name, e.g. Tree_3.svg.
func SnapshotFileName(index int, ext string) string {
	return fmt.Sprintf("Tree_%d.%s", index, ext)
}

var (
	tmplTimeline     *template.Template
	tmplTimelineOnce sync.Once
)

func getTimelineTemplate() *template.Template {
	tmplTimelineOnce.Do(func() {
		tmplTimeline = template.Must(template.New("timeline").
			Funcs(template.FuncMap{
				// SVG comes from the in-process Graphviz renderer.
				"inline": func(svg []byte) template.HTML { return template.HTML(svg) },
			}).
			Parse(timelineTemplateStr))
	})
	return tmplTimeline
}

// Assemble renders the timeline document. An empty frame list yields a
// document with an empty container.
func Assemble(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := getTimelineTemplate().Execute(&buf, doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "assemble timeline")
	}
	return buf.Bytes(), nil
}

const timelineTemplateStr = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{if .Title}}{{.Title}} - {{end}}dependency tree timeline</title>
<style>
body { font-family: sans-serif; margin: 16px; }
.legend span { display: inline-block; margin-right: 12px; padding: 2px 8px; border: 2px solid; }
.frame { display: inline-block; vertical-align: top; margin-right: 24px; }
.frame h1 { text-align: center; }
.frame .trigger { text-align: center; }
footer { color: #888; font-size: small; margin-top: 16px; }
</style>
</head>
<body>
{{- if .Legend}}
<div class="legend">
{{- range .Legend}}
<span style="background:{{.Fill}};border-color:{{.Border}}">{{.Kind}}</span>
{{- end}}
</div>
{{- end}}
<div style="white-space:nowrap">
{{- range .Frames}}
<div class="frame" id="tree-{{.Index}}" style="display:inline-block">
{{inline .SVG}}
<h1 style="text-align:center">{{.Time}}</h1>
<div class="trigger" style="text-align:center">Trigger: {{.Trigger}}</div>
</div>
{{- end}}
</div>
{{- if .RunID}}
<footer>run {{.RunID}}</footer>
{{- end}}
</body>
</html>
`
