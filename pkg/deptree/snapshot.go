package deptree

import (
	json "github.com/goccy/go-json"

	"github.com/matzehuels/qlogtree/pkg/errors"
	"github.com/matzehuels/qlogtree/pkg/qlog"
)

// Snapshot is the dependency tree as it stood after one PRIORITY_CHANGE.
// Root is the tree exactly as parsed, so it need not be a Root node.
// Snapshots never share nodes.
type Snapshot struct {
	Index   int    `json:"index"`
	Time    int64  `json:"time"`
	Trigger string `json:"trigger"`
	Root    *Node  `json:"tree"`
}

// Extract parses every HTTP PRIORITY_CHANGE event into a snapshot, in event
// order. The first malformed tree aborts extraction with a TREE_PARSE error
// naming its snapshot index and event time; no partial result is returned.
func Extract(events []qlog.Event) ([]Snapshot, error) {
	var snaps []Snapshot
	for _, ev := range events {
		if !ev.Is(qlog.CategoryHTTP, qlog.EventPriorityChange) {
			continue
		}
		idx := len(snaps)
		root, err := treeOf(ev)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeTreeParse, err, "snapshot %d at %d ms", idx, ev.Time)
		}
		snaps = append(snaps, Snapshot{
			Index:   idx,
			Time:    ev.Time,
			Trigger: ev.Trigger,
			Root:    root,
		})
	}
	return snaps, nil
}

// treeOf reads data.new_tree, which is normally a JSON string holding the
// serialized tree. Writers that embed the tree as an object are accepted too.
func treeOf(ev qlog.Event) (*Node, error) {
	v, ok := ev.Value("new_tree")
	if !ok || v == nil {
		return nil, errors.New(errors.ErrCodeTreeParse, "event has no new_tree")
	}
	switch t := v.(type) {
	case string:
		return ParseTree([]byte(t))
	case map[string]any:
		data, err := json.Marshal(t)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeTreeParse, err, "re-encode new_tree")
		}
		return ParseTree(data)
	default:
		return nil, errors.New(errors.ErrCodeTreeParse, "new_tree must be a string or object, got %T", v)
	}
}

// anchor attaches a tree whose top node is not a Root under a synthetic
// Root_ROOT.
func anchor(n *Node) *Node {
	if n.Type == TypeRoot {
		return n
	}
	return &Node{Type: TypeRoot, ID: RootID, Children: []*Node{n}}
}
