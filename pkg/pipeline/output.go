package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/matzehuels/qlogtree/pkg/timeline"
)

// Files returns every output of the run keyed by file name: the timeline
// under timelineName plus Tree_<index>.<format> per snapshot artifact.
func (r *Result) Files(timelineName string) map[string][]byte {
	files := map[string][]byte{timelineName: r.Timeline}
	for _, s := range r.Snapshots {
		for format, data := range s.Artifacts {
			files[timeline.SnapshotFileName(s.Index, format)] = data
		}
	}
	return files
}

// Write stores the result's files under dir and returns their paths, the
// timeline first. Snapshot artifacts are written next to the timeline.
func Write(dir, timelineName string, r *Result, formats []string) ([]string, error) {
	if timelineName == "" {
		timelineName = timeline.DefaultFileName
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	keep := make(map[string]bool, len(formats))
	for _, f := range formats {
		keep[f] = true
	}

	names := []string{timelineName}
	var rest []string
	for _, s := range r.Snapshots {
		for format := range s.Artifacts {
			if len(keep) > 0 && !keep[format] {
				continue
			}
			rest = append(rest, timeline.SnapshotFileName(s.Index, format))
		}
	}
	sort.Strings(rest)
	names = append(names, rest...)

	files := r.Files(timelineName)
	written := make([]string, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, files[name], 0644); err != nil {
			return written, fmt.Errorf("write %s: %w", name, err)
		}
		written = append(written, path)
	}
	return written, nil
}
