package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/qlogtree/pkg/classify"
	"github.com/matzehuels/qlogtree/pkg/deptree"
	"github.com/matzehuels/qlogtree/pkg/errors"
)

// Options configures DOT generation.
type Options struct {
	// SkipUnclassified leaves request nodes without a color assignment
	// unstyled instead of failing the render.
	SkipUnclassified bool

	// OnUnclassified is called for every skipped request id when
	// SkipUnclassified is set.
	OnUnclassified func(id string)
}

// ToDOT converts a flattened snapshot to a strict Graphviz digraph.
// The root is declared first, then one styled declaration per distinct request
// id, then every edge in flattening order. A request id missing from colors
// is a CLASSIFICATION_LOOKUP error unless opts.SkipUnclassified is set.
func ToDOT(f deptree.Flattened, colors classify.Assignment, opts Options) (string, error) {
	var buf bytes.Buffer
	buf.WriteString("strict digraph tree {\n")
	fmt.Fprintf(&buf, "\t%s [root=%s];\n", quote(deptree.RootIdentifier), quote(deptree.RootIdentifier))

	for _, id := range f.UniqueRequestIDs() {
		pair, ok := colors.Lookup(id)
		if !ok {
			if !opts.SkipUnclassified {
				return "", errors.New(errors.ErrCodeClassificationLookup, "no GET request observed for stream %s", id)
			}
			if opts.OnUnclassified != nil {
				opts.OnUnclassified(id)
			}
			continue
		}
		node := deptree.Node{Type: deptree.TypeRequest, ID: id}
		fmt.Fprintf(&buf, "\t%s [style=filled, fillcolor=%s, color=%s];\n", quote(node.Identifier()), quote(pair.Fill), quote(pair.Border))
	}

	for _, e := range f.Edges {
		fmt.Fprintf(&buf, "\t%s -> %s;\n", quote(e.Parent), quote(e.Child))
	}

	buf.WriteString("}\n")
	return buf.String(), nil
}

// quote makes s a DOT quoted string. Inside quotes DOT only unescapes \",
// so every other byte is written as is.
func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

// RenderSVG lays dot out with Graphviz and returns SVG that can be inlined
// into HTML. It matches the signature of the pipeline's Layout hook.
func RenderSVG(dot string) ([]byte, error) {
	return RenderSVGContext(context.Background(), dot)
}

// RenderSVGContext is [RenderSVG] with a caller-supplied context.
func RenderSVGContext(ctx context.Context, dot string) ([]byte, error) {
	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "parse DOT")
	}
	defer g.Close()

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "start graphviz")
	}
	defer gv.Close()

	var svg bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &svg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "layout")
	}
	return normalizeViewBox(svg.Bytes()), nil
}

var viewBoxRe = regexp.MustCompile(`viewBox="[-0-9.]+\s+[-0-9.]+\s+([0-9.]+)\s+([0-9.]+)"`)

// normalizeViewBox drops everything before the root <svg> tag and rewrites
// that tag with a zero-origin viewBox and a pixel size equal to it.
// Documents without a usable viewBox are returned unchanged.
func normalizeViewBox(svg []byte) []byte {
	start := bytes.Index(svg, []byte("<svg"))
	if start < 0 {
		return svg
	}
	end := bytes.IndexByte(svg[start:], '>')
	if end < 0 {
		return svg
	}
	tag, body := svg[start:start+end+1], svg[start+end+1:]

	m := viewBoxRe.FindSubmatch(tag)
	if m == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(m[1]), 64)
	h, _ := strconv.ParseFloat(string(m[2]), 64)
	if w <= 0 || h <= 0 {
		return svg
	}

	var out bytes.Buffer
	out.Grow(len(body) + 160)
	fmt.Fprintf(&out, `<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	out.Write(body)
	return out.Bytes()
}
