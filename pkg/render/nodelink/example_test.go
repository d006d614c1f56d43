package nodelink_test

import (
	"fmt"

	"github.com/matzehuels/qlogtree/pkg/classify"
	"github.com/matzehuels/qlogtree/pkg/deptree"
	"github.com/matzehuels/qlogtree/pkg/qlog"
	"github.com/matzehuels/qlogtree/pkg/render/nodelink"
)

func ExampleToDOT() {
	events := []qlog.Event{
		{Category: qlog.CategoryHTTP, Name: qlog.EventGet, Data: map[string]any{"stream_id": "0", "uri": "/a.js"}},
		{Category: qlog.CategoryHTTP, Name: qlog.EventPriorityChange, Data: map[string]any{
			"new_tree": `{"type":"Root","id":"ROOT","children":[{"type":"Request","id":"0","children":[]}]}`,
		}},
	}

	snaps, _ := deptree.Extract(events)
	dot, err := nodelink.ToDOT(deptree.Flatten(snaps[0]), classify.Build(events), nodelink.Options{})
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Print(dot)
	// Output:
	// strict digraph tree {
	// 	"Root_ROOT" [root="Root_ROOT"];
	// 	"Request_0" [style=filled, fillcolor="#fff2cc", color="#dabd65"];
	// 	"Root_ROOT" -> "Request_0";
	// }
}
