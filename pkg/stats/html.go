package stats

import (
	"bytes"
	"html/template"
	"sync"

	"github.com/matzehuels/qlogtree/pkg/errors"
)

const (
	// WaterfallFileName is the fetch-time waterfall written by the CLI.
	WaterfallFileName = "visualisation.html"
	// ChunksFileName is the data chunk view written by the CLI.
	ChunksFileName = "priority_visualisation.html"

	// RulerStep is the width of one ruler block in milliseconds. The
	// waterfall draws one pixel per millisecond.
	RulerStep = 1000
)

// Ruler returns the ruler ticks for a waterfall ending at last: 0, 1000, ...
// for every tick strictly before last.
func Ruler(last int64) []int64 {
	var ticks []int64
	for t := int64(0); t < last; t += RulerStep {
		ticks = append(ticks, t)
	}
	return ticks
}

var (
	tmplWaterfall     *template.Template
	tmplWaterfallOnce sync.Once

	tmplChunks     *template.Template
	tmplChunksOnce sync.Once
)

func getWaterfallTemplate() *template.Template {
	tmplWaterfallOnce.Do(func() {
		tmplWaterfall = template.Must(template.New("waterfall").Parse(waterfallTemplateStr))
	})
	return tmplWaterfall
}

func getChunksTemplate() *template.Template {
	tmplChunksOnce.Do(func() {
		tmplChunks = template.Must(template.New("chunks").Parse(chunksTemplateStr))
	})
	return tmplChunks
}

// Waterfall renders fetches as one bar per stream, offset by start time and
// sized by duration, above a ruler of [RulerStep] blocks.
func Waterfall(title string, fetches []Fetch) ([]byte, error) {
	data := struct {
		Title   string
		Fetches []Fetch
		Ruler   []int64
		Step    int
	}{title, fetches, Ruler(LastEnd(fetches)), RulerStep}

	var buf bytes.Buffer
	if err := getWaterfallTemplate().Execute(&buf, data); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "render waterfall")
	}
	return buf.Bytes(), nil
}

// ChunkView renders one box per DATA chunk in trace order.
func ChunkView(title string, chunks []Chunk) ([]byte, error) {
	data := struct {
		Title  string
		Chunks []Chunk
	}{title, chunks}

	var buf bytes.Buffer
	if err := getChunksTemplate().Execute(&buf, data); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "render chunk view")
	}
	return buf.Bytes(), nil
}

const waterfallTemplateStr = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{if .Title}}{{.Title}} - {{end}}fetch times</title>
<style>
body { font-family: sans-serif; margin: 16px; }
.fetch { clear: both; border: solid; padding: 10px 0; white-space: nowrap; }
.ruler { white-space: nowrap; clear: both; margin-top: 16px; }
.tick { display: inline-block; border: 1px solid black; border-right: none; background: white; padding: 10px 0; }
</style>
</head>
<body>
<div class="fetches">
{{- range .Fetches}}
<div class="fetch" id="stream-{{.StreamID}}" style="border-color:{{.Colors.Border}};background:{{.Colors.Fill}};width:{{.Duration}}px;margin-left:{{.Start}}px" title="{{.URI}}">StreamID: {{.StreamID}}<br/>Start: {{.Start}} End: {{.End}} Duration: {{.Duration}}</div>
{{- end}}
</div>
<div class="ruler">
{{- range .Ruler}}
<div class="tick" style="width:{{$.Step}}px">t = {{.}}</div>
{{- end}}
</div>
</body>
</html>
`

const chunksTemplateStr = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{if .Title}}{{.Title}} - {{end}}data chunks</title>
<style>
body { font-family: sans-serif; margin: 16px; }
.chunk { display: inline-block; border: solid; margin: 2px; padding: 4px; font-size: small; }
</style>
</head>
<body>
<div class="chunks">
{{- range .Chunks}}
<div class="chunk" style="border-color:{{.Colors.Border}};background:{{.Colors.Fill}}">ID: {{.StreamID}}<br/>Weight: {{.PaddedWeight}}<br/>Bytes: {{.Bytes}}</div>
{{- end}}
</div>
</body>
</html>
`
