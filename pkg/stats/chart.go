package stats

import (
	"bytes"
	"fmt"
	"html"

	"github.com/matzehuels/qlogtree/pkg/render"
)

// Chart geometry, in SVG user units.
const (
	chartPlotHeight  = 320.0
	chartBarWidth    = 24.0
	chartBarGap      = 8.0
	chartMarginLeft  = 80.0
	chartMarginRight = 24.0
	chartMarginTop   = 48.0
	chartLabelSpace  = 180.0
	chartTicks       = 5
)

// ChartFileName returns the chart artifact name for scheme, e.g. "fifo.pdf".
func ChartFileName(scheme, ext string) string {
	return scheme + "." + ext
}

// CompletionChartSVG draws one bar per completion, colored by resource kind
// and labelled "<stream id>: <uri>", under the title "Scheme: <scheme>".
func CompletionChartSVG(scheme string, completions []Completion) []byte {
	var top int64
	for _, c := range completions {
		top = max(top, c.End)
	}
	yMax := niceCeil(top)

	plotWidth := float64(len(completions))*(chartBarWidth+chartBarGap) + chartBarGap
	width := chartMarginLeft + plotWidth + chartMarginRight
	height := chartMarginTop + chartPlotHeight + chartLabelSpace
	baseline := chartMarginTop + chartPlotHeight

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		width, height, width, height)
	fmt.Fprintf(&buf, `  <rect width="%.1f" height="%.1f" fill="white"/>`+"\n", width, height)
	fmt.Fprintf(&buf, `  <text x="%.1f" y="%.1f" text-anchor="middle" font-family="sans-serif" font-size="16">Scheme: %s</text>`+"\n",
		width/2, chartMarginTop/2, html.EscapeString(scheme))
	fmt.Fprintf(&buf, `  <text transform="translate(20 %.1f) rotate(-90)" text-anchor="middle" font-family="sans-serif" font-size="12">Time to completion (ms)</text>`+"\n",
		chartMarginTop+chartPlotHeight/2)

	renderAxis(&buf, yMax, plotWidth, baseline)

	for i, c := range completions {
		x := chartMarginLeft + chartBarGap + float64(i)*(chartBarWidth+chartBarGap)
		h := 0.0
		if yMax > 0 {
			h = float64(c.End) / float64(yMax) * chartPlotHeight
		}
		fmt.Fprintf(&buf, `  <rect id="bar-%s" x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s" stroke="%s" stroke-width="1.5"/>`+"\n",
			html.EscapeString(c.StreamID), x, baseline-h, chartBarWidth, h, c.Colors.Fill, c.Colors.Border)
		lx := x + chartBarWidth/2
		fmt.Fprintf(&buf, `  <text transform="translate(%.1f %.1f) rotate(-60)" text-anchor="end" font-family="sans-serif" font-size="10">%s</text>`+"\n",
			lx, baseline+12, html.EscapeString(c.Label()))
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

// CompletionChartPDF converts the chart to PDF with rsvg-convert.
func CompletionChartPDF(scheme string, completions []Completion) ([]byte, error) {
	return render.ToPDF(CompletionChartSVG(scheme, completions))
}

func renderAxis(buf *bytes.Buffer, yMax int64, plotWidth, baseline float64) {
	fmt.Fprintf(buf, `  <line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="black"/>`+"\n",
		chartMarginLeft, chartMarginTop, chartMarginLeft, baseline)
	fmt.Fprintf(buf, `  <line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="black"/>`+"\n",
		chartMarginLeft, baseline, chartMarginLeft+plotWidth, baseline)
	if yMax == 0 {
		return
	}
	for i := 0; i <= chartTicks; i++ {
		v := yMax * int64(i) / chartTicks
		y := baseline - float64(i)/chartTicks*chartPlotHeight
		fmt.Fprintf(buf, `  <line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="black"/>`+"\n",
			chartMarginLeft-4, y, chartMarginLeft, y)
		fmt.Fprintf(buf, `  <text x="%.1f" y="%.1f" text-anchor="end" font-family="sans-serif" font-size="10">%d</text>`+"\n",
			chartMarginLeft-6, y+3, v)
	}
}

// niceCeil rounds n up to a multiple of a power of ten times 1, 2 or 5 so
// the axis ticks land on round values.
func niceCeil(n int64) int64 {
	if n <= 0 {
		return 0
	}
	step := int64(1)
	for step*10 <= n {
		step *= 10
	}
	for _, m := range []int64{1, 2, 5, 10} {
		if step*m >= n {
			return step * m
		}
	}
	return step * 10
}
