package store

import (
	"context"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/qlogtree/pkg/deptree"
)

func sampleRecords(runID string) []Record {
	tree := &deptree.Node{Type: deptree.TypeRoot, ID: deptree.RootID, Children: []*deptree.Node{
		{Type: deptree.TypeRequest, ID: "4", Children: []*deptree.Node{}},
	}}
	var out []Record
	for i := 2; i >= 0; i-- {
		s := deptree.Snapshot{Index: i, Time: int64(10 * i), Trigger: "RX", Root: tree}
		out = append(out, NewRecord(runID, "client.qlog", s, deptree.Flatten(s)))
	}
	return out
}

func TestNewRecord(t *testing.T) {
	r := sampleRecords("run-1")[0]
	if r.Index != 2 || r.Time != 20 || r.Trigger != "RX" || r.Trace != "client.qlog" {
		t.Errorf("NewRecord() = %+v", r)
	}
	want := []deptree.Edge{{Parent: "Root_ROOT", Child: "Request_4"}}
	if !reflect.DeepEqual(r.Edges, want) {
		t.Errorf("Edges = %v, want %v", r.Edges, want)
	}
	if !reflect.DeepEqual(r.RequestIDs, []string{"4"}) {
		t.Errorf("RequestIDs = %v", r.RequestIDs)
	}
	if r.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close(ctx)

	if err := s.Save(ctx, sampleRecords("a")); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if err := s.Save(ctx, sampleRecords("b")[:1]); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	got, err := s.Run(ctx, "a")
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len(Run(a)) = %d, want 3", len(got))
	}
	for i, r := range got {
		if r.Index != i {
			t.Errorf("Run(a)[%d].Index = %d, records should be ordered by index", i, r.Index)
		}
	}

	empty, err := s.Run(ctx, "missing")
	if err != nil || empty == nil || len(empty) != 0 {
		t.Errorf("Run(missing) = %v, %v; want empty slice", empty, err)
	}
}

func TestMongoStoreRequiresURI(t *testing.T) {
	if _, err := NewMongoStore(context.Background(), MongoConfig{}); err == nil {
		t.Error("NewMongoStore() without URI should fail")
	}
}

// TestMongoStore runs against a live server named by QLOGTREE_TEST_MONGO_URI.
func TestMongoStore(t *testing.T) {
	uri := os.Getenv("QLOGTREE_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("QLOGTREE_TEST_MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, err := NewMongoStore(ctx, MongoConfig{URI: uri, Collection: "snapshots_test"})
	if err != nil {
		t.Fatalf("NewMongoStore() error: %v", err)
	}
	defer s.Close(ctx)

	runID := uuid.NewString()
	if err := s.Save(ctx, sampleRecords(runID)); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	got, err := s.Run(ctx, runID)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(got) != 3 || got[0].Index != 0 || got[2].Index != 2 {
		t.Fatalf("Run() = %+v", got)
	}
	if got[0].Tree == nil || len(got[0].Tree.Children) != 1 || got[0].Tree.Children[0].ID != "4" {
		t.Errorf("tree did not round trip: %+v", got[0].Tree)
	}
	if err := s.Save(ctx, nil); err != nil {
		t.Errorf("Save(nil) error: %v", err)
	}
}
