// Package qlog reads connection-event traces in the qlog 0.1 row format.
//
// # Overview
//
// A trace is a JSON document whose first connection carries an ordered list of
// event rows:
//
//	{
//	  "qlog_version": "0.1",
//	  "connections": [{
//	    "fields": ["time", "category", "type", "trigger", "data"],
//	    "events": [
//	      [12, "HTTP", "GET", "TX", {"stream_id": "0", "uri": "/index.html"}],
//	      [15, "HTTP", "PRIORITY_CHANGE", "RX", {"new_tree": "{...}"}]
//	    ]
//	  }]
//	}
//
// [ReadFile] and [Decode] turn such a document into a [Trace]; [Trace.Events]
// returns the first connection's rows as [Event] values in trace order. Row
// positions follow the connection's "fields" list when it names all five
// columns, and the default order above otherwise.
//
// # Compression
//
// Gzip and zstd compressed traces are detected by their magic bytes and
// decompressed transparently (see [Decompress]).
//
// # Repair
//
// Writers that crash before closing the document leave a dangling ",\n" after
// the last row. [Repair] applies the fixed heuristic used by the trace tooling:
// drop the last two bytes and append "]}]}". It does not attempt to close an
// arbitrary number of nesting levels.
//
// # Errors
//
// All decoding failures carry [errors.ErrCodeTraceFormat].
package qlog
