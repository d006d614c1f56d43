// Package deptree reconstructs HTTP/3 prioritization dependency trees from a
// qlog trace.
//
// # Snapshots
//
// Every HTTP PRIORITY_CHANGE event carries the server's complete dependency
// tree after the change, serialized as JSON in data.new_tree. [Extract] parses
// each of them into a [Snapshot], in trace order:
//
//	snaps, err := deptree.Extract(events)
//	for _, s := range snaps {
//	    f := deptree.Flatten(s)
//	    // f.Edges, f.RequestIDs
//	}
//
// # Nodes
//
// A [Node] is one of Root, Request, or Placeholder. Its identifier is
// Type + "_" + ID, so request stream 4 is "Request_4" and the root is always
// "Root_ROOT". Identifiers are derived, never stored, and never de-duplicated:
// a tree that lists the same request twice yields two edges into the same
// identifier.
//
// # Flattening
//
// [Flatten] walks a snapshot depth-first in pre-order and emits one [Edge]
// per parent/child pair, children in their listed order. Request ids are
// collected after a node's subtree has been visited.
package deptree
