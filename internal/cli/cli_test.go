package cli

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/qlogtree/pkg/config"
	"github.com/matzehuels/qlogtree/pkg/errors"
	"github.com/matzehuels/qlogtree/pkg/store"
)

const clientTrace = `{"qlog_version":"0.1","connections":[{"events":[
	[0,"HTTP","GET","TX",{"stream_id":"0","uri":"/"}],
	[1,"HTTP","GET","TX",{"stream_id":"4","uri":"/a.js"}],
	[5,"HTTP","PRIORITY_CHANGE","RX",{"new_tree":"{\"type\":\"Root\",\"id\":\"ROOT\",\"children\":[{\"type\":\"Request\",\"id\":\"0\",\"children\":[]}]}"}],
	[6,"HTTP","DATA_CHUNK","RX",{"stream_id":"0","weight":"16","byte_length":1200}],
	[7,"HTTP","PRIORITY_CHANGE","RX",{"new_tree":"{\"type\":\"Root\",\"id\":\"ROOT\",\"children\":[{\"type\":\"Request\",\"id\":\"0\",\"children\":[{\"type\":\"Request\",\"id\":\"4\",\"children\":[]}]}]}"}],
	[8,"HTTP","DATA_CHUNK","RX",{"stream_id":"4","weight":"32","byte_length":800}],
	[9,"HTTP","STREAM_STATE_UPDATE","FIN",{"id":"0"}],
	[12,"HTTP","STREAM_STATE_UPDATE","FIN",{"id":"4"}]
]}]}`

// testCLI returns a CLI with isolated config and cache directories whose
// status output is captured.
func testCLI(t *testing.T) (*CLI, *bytes.Buffer) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Setenv(config.EnvRedisURL, "")
	t.Setenv(config.EnvMongoURI, "")

	var buf bytes.Buffer
	prev := out
	out = &buf
	t.Cleanup(func() { out = prev })

	c := New(io.Discard, log.InfoLevel)
	c.Confirm = func(string) (bool, error) {
		t.Error("unexpected prompt")
		return false, nil
	}
	return c, &buf
}

// execute runs the root command with args.
func execute(t *testing.T, c *CLI, args ...string) error {
	t.Helper()
	root := c.RootCommand()
	root.SetArgs(append([]string{}, args...))
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func writeTrace(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestArgumentCount(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"root without log", nil},
		{"root with three args", []string{"a.qlog", "out.html", "extra"}},
		{"fetchtime without log", []string{"fetchtime"}},
		{"chunks with two logs", []string{"chunks", "a.qlog", "b.qlog"}},
		{"ttc with one arg", []string{"ttc", "a.qlog"}},
		{"ttc with path scheme", []string{"ttc", "../x", "a.qlog"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := testCLI(t)
			err := execute(t, c, tt.args...)
			if !errors.Is(err, errors.ErrCodeInvalidArguments) {
				t.Errorf("error = %v, want INVALID_ARGUMENTS", err)
			}
		})
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"svg", []string{"svg"}},
		{" svg, png ,,pdf", []string{"svg", "png", "pdf"}},
	}
	for _, tt := range tests {
		got := parseFormats(tt.in)
		if strings.Join(got, "|") != strings.Join(tt.want, "|") || (got == nil) != (tt.want == nil) {
			t.Errorf("parseFormats(%q) = %#v, want %#v", tt.in, got, tt.want)
		}
	}
}

func TestRepairMode(t *testing.T) {
	c, _ := testCLI(t)
	c.Config.Repair.Mode = config.RepairNo
	if got := c.repairMode(""); got != config.RepairNo {
		t.Errorf("repairMode(\"\") = %q, want configured %q", got, config.RepairNo)
	}
	if got := c.repairMode(config.RepairYes); got != config.RepairYes {
		t.Errorf("repairMode(yes) = %q", got)
	}
	if err := validateRepairMode("maybe"); !errors.Is(err, errors.ErrCodeInvalidArguments) {
		t.Errorf("validateRepairMode(maybe) = %v", err)
	}
}

func TestLoadTraceRepair(t *testing.T) {
	unterminated := strings.TrimSuffix(clientTrace, "\n]}]}") + ",\n"

	tests := []struct {
		name       string
		mode       string
		answer     bool
		wantPrompt bool
		wantErr    bool
	}{
		{"yes repairs without asking", config.RepairYes, false, false, false},
		{"no leaves it broken", config.RepairNo, false, false, true},
		{"ask and accept", config.RepairAsk, true, true, false},
		{"ask and decline", config.RepairAsk, false, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := testCLI(t)
			prompted := false
			c.Confirm = func(q string) (bool, error) {
				prompted = true
				if q != "Fix qlog file?" {
					t.Errorf("question = %q", q)
				}
				return tt.answer, nil
			}
			path := writeTrace(t, t.TempDir(), "client.qlog", unterminated)

			lt, err := c.loadTrace(context.Background(), path, tt.mode)
			if prompted != tt.wantPrompt {
				t.Errorf("prompted = %v, want %v", prompted, tt.wantPrompt)
			}
			if tt.wantErr {
				if !errors.Is(err, errors.ErrCodeTraceFormat) {
					t.Errorf("error = %v, want TRACE_FORMAT", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("loadTrace() error: %v", err)
			}
			if !lt.Repaired || len(lt.Events) != 8 {
				t.Errorf("loaded %d events, repaired=%v", len(lt.Events), lt.Repaired)
			}
			onDisk, _ := os.ReadFile(path)
			if !strings.HasSuffix(string(onDisk), "]}]}") {
				t.Error("repair should be written back to the file")
			}
		})
	}
}

func TestPipedAnswer(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"y", "y\n", true},
		{"Y", "Y", true},
		{"n", "n\n", false},
		{"newline", "\n", false},
		{"yes spelled out", "yes\n", true},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testCLI(t)
			got, err := readAnswer(strings.NewReader(tt.input), "Fix qlog file?")
			if err != nil {
				t.Fatalf("readAnswer() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("readAnswer(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestRepairFromPipedStdin(t *testing.T) {
	c, buf := testCLI(t)
	c.Confirm = confirm

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	w.Write([]byte("y\n"))
	w.Close()
	stdin := os.Stdin
	os.Stdin = r
	t.Cleanup(func() {
		os.Stdin = stdin
		r.Close()
	})

	unterminated := strings.TrimSuffix(clientTrace, "\n]}]}") + ",\n"
	path := writeTrace(t, t.TempDir(), "client.qlog", unterminated)

	lt, err := c.loadTrace(context.Background(), path, config.RepairAsk)
	if err != nil {
		t.Fatalf("loadTrace() error: %v", err)
	}
	if !lt.Repaired {
		t.Error("a piped y should accept the repair")
	}
	if !strings.Contains(buf.String(), "Fix qlog file?") {
		t.Errorf("question not shown: %q", buf.String())
	}
}

func TestLoadTraceWellFormedNeverPrompts(t *testing.T) {
	c, _ := testCLI(t)
	path := writeTrace(t, t.TempDir(), "client.qlog", clientTrace)
	if _, err := c.loadTrace(context.Background(), path, config.RepairAsk); err != nil {
		t.Fatalf("loadTrace() error: %v", err)
	}
}

func TestLoadTraceMissing(t *testing.T) {
	c, _ := testCLI(t)
	_, err := c.loadTrace(context.Background(), filepath.Join(t.TempDir(), "nope.qlog"), config.RepairNo)
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestTimelineCommand(t *testing.T) {
	c, buf := testCLI(t)
	dir := t.TempDir()
	trace := writeTrace(t, dir, "client.qlog", clientTrace)
	output := filepath.Join(dir, "out", "timeline.html")

	if err := execute(t, c, trace, output, "--no-cache", "--formats", "svg,json"); err != nil {
		t.Fatalf("execute() error: %v", err)
	}

	html, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("timeline not written: %v", err)
	}
	if !strings.Contains(string(html), "Trigger: RX") {
		t.Error("timeline should show the snapshot triggers")
	}
	for _, name := range []string{"Tree_0.svg", "Tree_0.json", "Tree_1.svg", "Tree_1.json"} {
		if _, err := os.Stat(filepath.Join(dir, "out", name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}
	if !strings.Contains(buf.String(), "Timeline of 2 snapshots") {
		t.Errorf("status output = %q", buf.String())
	}
}

func TestTimelineInvalidFormat(t *testing.T) {
	c, _ := testCLI(t)
	trace := writeTrace(t, t.TempDir(), "client.qlog", clientTrace)
	err := execute(t, c, "timeline", trace, "--formats", "gif")
	if !errors.Is(err, errors.ErrCodeInvalidArguments) {
		t.Errorf("error = %v, want INVALID_ARGUMENTS", err)
	}
}

type fakeStore struct {
	saved  []store.Record
	closed bool
}

func (s *fakeStore) Save(_ context.Context, records []store.Record) error {
	s.saved = append(s.saved, records...)
	return nil
}

func (s *fakeStore) Run(_ context.Context, runID string) ([]store.Record, error) {
	return s.saved, nil
}

func (s *fakeStore) Close(context.Context) error {
	s.closed = true
	return nil
}

type fakePublisher struct {
	runID, name string
	body        []byte
}

func (p *fakePublisher) Publish(_ context.Context, runID, name string, body []byte) (string, error) {
	p.runID, p.name, p.body = runID, name, body
	return "s3://traces/" + runID + "/" + name, nil
}

func TestTimelineArchiveAndPublish(t *testing.T) {
	c, buf := testCLI(t)
	dir := t.TempDir()
	trace := writeTrace(t, dir, "client.qlog", clientTrace)

	st := &fakeStore{}
	pub := &fakePublisher{}
	prevArchive, prevPublisher := openArchive, openPublisher
	openArchive = func(context.Context, config.Archive) (store.Store, error) { return st, nil }
	openPublisher = func(context.Context, config.Publish) (timelinePublisher, error) { return pub, nil }
	t.Cleanup(func() { openArchive, openPublisher = prevArchive, prevPublisher })

	cfgPath := writeTrace(t, dir, "config.toml", `
[archive]
uri = "mongodb://localhost:27017"

[publish]
bucket = "traces"
`)

	output := filepath.Join(dir, "timeline.html")
	if err := execute(t, c, "--config", cfgPath, trace, output, "--no-cache", "--archive", "--publish"); err != nil {
		t.Fatalf("execute() error: %v", err)
	}

	if len(st.saved) != 2 || !st.closed {
		t.Fatalf("archived %d records (closed=%v), want 2", len(st.saved), st.closed)
	}
	rec := st.saved[1]
	if rec.Trace != "client.qlog" || rec.Index != 1 || len(rec.Edges) != 2 {
		t.Errorf("record = %+v", rec)
	}
	if pub.name != "timeline.html" || pub.runID != rec.RunID || len(pub.body) == 0 {
		t.Errorf("published %q for run %q", pub.name, pub.runID)
	}
	if !strings.Contains(buf.String(), "s3://traces/"+rec.RunID+"/timeline.html") {
		t.Errorf("status output lacks the published location: %q", buf.String())
	}
}

func TestArchiveNeedsURI(t *testing.T) {
	c, _ := testCLI(t)
	trace := writeTrace(t, t.TempDir(), "client.qlog", clientTrace)
	output := filepath.Join(t.TempDir(), "timeline.html")
	err := execute(t, c, trace, output, "--no-cache", "--archive")
	if !errors.Is(err, errors.ErrCodeInvalidArguments) {
		t.Errorf("error = %v, want INVALID_ARGUMENTS", err)
	}
}

func TestStatsCommands(t *testing.T) {
	c, _ := testCLI(t)
	dir := t.TempDir()
	trace := writeTrace(t, dir, "client.qlog", clientTrace)
	t.Chdir(dir)

	waterfall := filepath.Join(dir, "waterfall.html")
	if err := execute(t, c, "fetchtime", trace, "-o", waterfall); err != nil {
		t.Fatalf("fetchtime: %v", err)
	}
	if data, _ := os.ReadFile(waterfall); !strings.Contains(string(data), "StreamID: 4") {
		t.Error("waterfall should list stream 4")
	}

	if err := execute(t, c, "chunks", trace); err != nil {
		t.Fatalf("chunks: %v", err)
	}
	if data, _ := os.ReadFile(filepath.Join(dir, "priority_visualisation.html")); !strings.Contains(string(data), "Weight: 032") {
		t.Error("chunk view should show the padded weight")
	}

	if err := execute(t, c, "ttc", "fifo", trace, "--format", "svg"); err != nil {
		t.Fatalf("ttc: %v", err)
	}
	if data, _ := os.ReadFile(filepath.Join(dir, "fifo.svg")); !strings.Contains(string(data), "Scheme: fifo") {
		t.Error("chart should be titled after the scheme")
	}
}

func TestTTCInvalidFormat(t *testing.T) {
	c, _ := testCLI(t)
	trace := writeTrace(t, t.TempDir(), "client.qlog", clientTrace)
	err := execute(t, c, "ttc", "fifo", trace, "--format", "png")
	if !errors.Is(err, errors.ErrCodeInvalidArguments) {
		t.Errorf("error = %v, want INVALID_ARGUMENTS", err)
	}
}

func TestCachePath(t *testing.T) {
	c, buf := testCLI(t)
	if err := execute(t, c, "cache", "path"); err != nil {
		t.Fatalf("cache path: %v", err)
	}
	want := filepath.Join(os.Getenv("XDG_CACHE_HOME"), appName)
	if !strings.HasPrefix(strings.TrimSpace(buf.String()), want) {
		t.Errorf("cache path = %q, want under %q", buf.String(), want)
	}
}

func TestConfirmModel(t *testing.T) {
	tests := []struct {
		key  tea.KeyMsg
		want bool
	}{
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")}, true},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("Y")}, true},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")}, false},
		{tea.KeyMsg{Type: tea.KeyEnter}, false},
		{tea.KeyMsg{Type: tea.KeyEsc}, false},
	}

	for _, tt := range tests {
		t.Run(tt.key.String(), func(t *testing.T) {
			m, cmd := newConfirmModel("Fix qlog file?").Update(tt.key)
			got := m.(confirmModel)
			if !got.answered || got.answer != tt.want {
				t.Errorf("answer = %v (answered %v), want %v", got.answer, got.answered, tt.want)
			}
			if cmd == nil {
				t.Error("an answer should quit the prompt")
			}
		})
	}

	m, cmd := newConfirmModel("Fix qlog file?").Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	if m.(confirmModel).answered || cmd != nil {
		t.Error("other keys should be ignored")
	}
	if !strings.Contains(newConfirmModel("Fix qlog file?").View(), "[y/N]") {
		t.Error("prompt should show the default answer")
	}
}

func TestLoadTraceFromURL(t *testing.T) {
	unterminated := strings.TrimSuffix(clientTrace, "\n]}]}") + ",\n"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(unterminated))
	}))
	defer srv.Close()

	c, _ := testCLI(t)
	lt, err := c.loadTrace(context.Background(), srv.URL+"/client.qlog", config.RepairYes)
	if err != nil {
		t.Fatalf("loadTrace() error: %v", err)
	}
	if !lt.Repaired || len(lt.Events) != 8 {
		t.Errorf("loaded %d events, repaired=%v", len(lt.Events), lt.Repaired)
	}
}

func TestCacheClear(t *testing.T) {
	c, buf := testCLI(t)
	dir := t.TempDir()
	trace := writeTrace(t, dir, "client.qlog", clientTrace)
	if err := execute(t, c, trace, filepath.Join(dir, "timeline.html")); err != nil {
		t.Fatalf("timeline: %v", err)
	}

	buf.Reset()
	if err := execute(t, c, "cache", "clear", "--expired"); err != nil {
		t.Fatalf("cache clear --expired: %v", err)
	}
	if !strings.Contains(buf.String(), "Cache is empty") {
		t.Errorf("fresh entries should survive --expired: %q", buf.String())
	}

	buf.Reset()
	if err := execute(t, c, "cache", "clear"); err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	if !strings.Contains(buf.String(), "Cleared ") {
		t.Errorf("cache clear output = %q", buf.String())
	}
}
