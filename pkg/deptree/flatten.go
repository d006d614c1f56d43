package deptree

// Edge is a parent/child pair of node identifiers.
type Edge struct {
	Parent string `json:"parent" bson:"parent"`
	Child  string `json:"child" bson:"child"`
}

// Flattened is the edge list and request ids of one snapshot.
type Flattened struct {
	// Edges in pre-order, children in listed order.
	Edges []Edge `json:"edges" bson:"edges"`
	// RequestIDs holds the ID of every Request node, recorded after its
	// subtree. Duplicates are kept.
	RequestIDs []string `json:"request_ids" bson:"request_ids"`
}

// Flatten walks the snapshot's tree. A tree whose top node is not a Root is
// walked as if attached under Root_ROOT, so every snapshot's edges start at
// the same root. A root without children yields no edges.
func Flatten(s Snapshot) Flattened {
	f := Flattened{Edges: []Edge{}, RequestIDs: []string{}}
	if s.Root != nil {
		f.visit(anchor(s.Root), "")
	}
	return f
}

func (f *Flattened) visit(n *Node, parent string) {
	id := n.Identifier()
	if parent != "" {
		f.Edges = append(f.Edges, Edge{Parent: parent, Child: id})
	}
	for _, c := range n.Children {
		f.visit(c, id)
	}
	if n.IsRequest() {
		f.RequestIDs = append(f.RequestIDs, n.ID)
	}
}

// UniqueRequestIDs returns RequestIDs without duplicates, in first-seen order.
func (f Flattened) UniqueRequestIDs() []string {
	seen := make(map[string]bool, len(f.RequestIDs))
	out := make([]string, 0, len(f.RequestIDs))
	for _, id := range f.RequestIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
