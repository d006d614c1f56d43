package deptree

import (
	"bytes"
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/matzehuels/qlogtree/pkg/errors"
)

// Node types emitted by the server.
const (
	TypeRoot        = "Root"
	TypeRequest     = "Request"
	TypePlaceholder = "Placeholder"

	// RootID is the id every root node carries.
	RootID = "ROOT"
)

// MaxDepth bounds the nesting of a parsed tree.
const MaxDepth = 1000

// RootIdentifier is the identifier of the root node.
const RootIdentifier = TypeRoot + "_" + RootID

// Node is one element of a dependency tree. Children keep the order in
// which the server listed them.
type Node struct {
	Type     string  `json:"type" bson:"type"`
	ID       string  `json:"id" bson:"id"`
	Weight   *int    `json:"weight,omitempty" bson:"weight,omitempty"`
	Children []*Node `json:"children" bson:"children"`
}

// Identifier returns the graph identifier Type + "_" + ID.
func (n *Node) Identifier() string {
	return n.Type + "_" + n.ID
}

// IsRequest reports whether n represents a request stream.
func (n *Node) IsRequest() bool {
	return n.Type == TypeRequest
}

// CountNodes returns the number of nodes in the tree rooted at n.
func CountNodes(n *Node) int {
	if n == nil {
		return 0
	}
	count := 1
	for _, c := range n.Children {
		count += CountNodes(c)
	}
	return count
}

// Depth returns the number of levels in the tree rooted at n.
func Depth(n *Node) int {
	if n == nil {
		return 0
	}
	deepest := 0
	for _, c := range n.Children {
		deepest = max(deepest, Depth(c))
	}
	return deepest + 1
}

type rawNode struct {
	Type     *string         `json:"type"`
	ID       json.RawMessage `json:"id"`
	Weight   *int            `json:"weight"`
	Children json.RawMessage `json:"children"`
}

// ParseTree decodes a serialized dependency tree. Type and id are required;
// id may be a JSON string or number. A missing or null children list is
// treated as empty. Trees nested deeper than [MaxDepth] are rejected.
func ParseTree(data []byte) (*Node, error) {
	return parseNode(data, 1, "root")
}

func parseNode(data []byte, depth int, where string) (*Node, error) {
	if depth > MaxDepth {
		return nil, errors.New(errors.ErrCodeTreeParse, "tree exceeds maximum depth %d", MaxDepth)
	}

	var raw rawNode
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(errors.ErrCodeTreeParse, err, "%s: invalid node", where)
	}
	if raw.Type == nil {
		return nil, errors.New(errors.ErrCodeTreeParse, "%s: missing type", where)
	}
	id, err := parseID(raw.ID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeTreeParse, err, "%s", where)
	}

	n := &Node{Type: *raw.Type, ID: id, Weight: raw.Weight, Children: []*Node{}}
	if isNull(raw.Children) {
		return n, nil
	}

	var children []json.RawMessage
	if err := json.Unmarshal(raw.Children, &children); err != nil {
		return nil, errors.Wrap(errors.ErrCodeTreeParse, err, "%s: children must be a list", n.Identifier())
	}
	for i, c := range children {
		child, err := parseNode(c, depth+1, n.Identifier()+".children["+strconv.Itoa(i)+"]")
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, child)
	}
	return n, nil
}

func parseID(raw json.RawMessage) (string, error) {
	if isNull(raw) {
		return "", errors.New(errors.ErrCodeTreeParse, "missing id")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var num json.Number
	if err := json.Unmarshal(raw, &num); err == nil {
		return num.String(), nil
	}
	return "", errors.New(errors.ErrCodeTreeParse, "id must be a string or number, got %s", string(raw))
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// MarshalIndent serializes the tree with four-space indentation.
func MarshalIndent(n *Node) ([]byte, error) {
	return json.MarshalIndent(n, "", "    ")
}
