package classify_test

import (
	"fmt"

	"github.com/matzehuels/qlogtree/pkg/classify"
	"github.com/matzehuels/qlogtree/pkg/qlog"
)

func ExampleClassify() {
	fmt.Println(classify.Classify("/"))
	fmt.Println(classify.Classify("/app.js"))
	fmt.Println(classify.Classify("/data.bin"))
	// Output:
	// {#e1d5e7 #9f7fae}
	// {#fff2cc #dabd65}
	// {#FFFFFF #FF0000}
}

func ExampleBuild() {
	events := []qlog.Event{{
		Category: qlog.CategoryHTTP,
		Name:     qlog.EventGet,
		Data:     map[string]any{"stream_id": "0", "uri": "/a.css"},
	}}

	colors := classify.Build(events)
	pair, ok := colors.Lookup("0")
	fmt.Println(pair.Fill, pair.Border, ok)
	// Output:
	// #d5e8d4 #86b56c true
}
