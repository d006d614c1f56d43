// Package nodelink renders dependency tree snapshots as node-link diagrams.
//
// # Overview
//
// [ToDOT] turns a flattened snapshot and the trace's color assignment into
// Graphviz DOT source. [RenderSVG] lays the graph out in-process with
// Graphviz and returns SVG suitable for inlining into the timeline.
//
//	dot, err := nodelink.ToDOT(deptree.Flatten(snap), colors, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(dot)
//
// PDF and PNG are produced from the SVG by the parent render package.
//
// # DOT Format
//
// The graph is a strict digraph named "tree", so a duplicated edge is drawn
// once. Identifiers are quoted. The root node "Root_ROOT" is always declared
// first; request nodes are filled with their resource color and outlined with
// its border color; placeholder nodes keep the Graphviz defaults.
//
// # Dependencies
//
// Layout runs in-process through [github.com/goccy/go-graphviz], so no dot
// binary is needed.
package nodelink
