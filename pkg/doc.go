// Package pkg provides the core libraries for qlogtree, a visualizer for
// HTTP/3 prioritization dependency trees recorded in qlog traces.
//
// # Overview
//
// A client-side qlog trace of a page load contains the GET request sent on
// every stream and, for each PRIORITY_CHANGE the server announced, the full
// dependency tree it scheduled by. qlogtree turns that sequence of trees into
// a timeline of colored graphs. The pkg directory is organized into:
//
//  1. [qlog] - trace decoding, decompression, and repair of unterminated files
//  2. [classify] - stream id to resource color mapping from GET events
//  3. [deptree] - tree snapshots, flattening into edges and request ids
//  4. [render] - DOT generation, Graphviz layout, SVG/PDF/PNG conversion
//  5. [timeline] - the HTML document embedding every snapshot
//  6. [pipeline] - orchestration (classify → extract → render → assemble)
//  7. [stats] - waterfall, time-to-completion, and data chunk views
//  8. [cache], [store], [publish], [remote] - render cache, MongoDB archive,
//     S3 upload, and trace downloads
//
// # Architecture
//
//	qlog trace (plain, gzip or zstd)
//	         ↓
//	    [qlog] package (decode, optionally repair)
//	         ↓
//	    [classify] + [deptree] packages (colors, snapshots)
//	         ↓
//	    [render/nodelink] package (DOT → SVG via Graphviz)
//	         ↓
//	    [timeline] package (HTML)
//
// # Quick Start
//
//	tr, _ := qlog.ReadFile("client.qlog")
//	events, _ := tr.Events()
//
//	runner := pipeline.NewRunner(nil, nil, nil)
//	res, err := runner.Execute(ctx, events, pipeline.Options{Title: "client.qlog"})
//	if err != nil {
//	    return err
//	}
//	_, err = pipeline.Write("out", "", res, nil)
//
// # Error Handling
//
// All packages report failures through [errors]; each error carries a code
// such as TRACE_FORMAT or CLASSIFICATION_LOOKUP that the CLI and the HTTP
// API map to exit codes and status codes.
//
// [qlog]: github.com/matzehuels/qlogtree/pkg/qlog
// [classify]: github.com/matzehuels/qlogtree/pkg/classify
// [deptree]: github.com/matzehuels/qlogtree/pkg/deptree
// [render]: github.com/matzehuels/qlogtree/pkg/render
// [render/nodelink]: github.com/matzehuels/qlogtree/pkg/render/nodelink
// [timeline]: github.com/matzehuels/qlogtree/pkg/timeline
// [pipeline]: github.com/matzehuels/qlogtree/pkg/pipeline
// [stats]: github.com/matzehuels/qlogtree/pkg/stats
// [cache]: github.com/matzehuels/qlogtree/pkg/cache
// [store]: github.com/matzehuels/qlogtree/pkg/store
// [publish]: github.com/matzehuels/qlogtree/pkg/publish
// [remote]: github.com/matzehuels/qlogtree/pkg/remote
// [errors]: github.com/matzehuels/qlogtree/pkg/errors
package pkg
