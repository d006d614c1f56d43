package qlog

import (
	"bytes"
	"os"

	"github.com/matzehuels/qlogtree/pkg/errors"
)

// ClosingSequence closes the events array, the connection object, the
// connections array, and the document.
const ClosingSequence = "]}]}"

// danglingBytes is the length of the ",\n" left behind by the last row.
const danglingBytes = 2

// NeedsRepair reports whether data looks like an unterminated trace: its last
// non-whitespace byte is the comma that followed the final event row.
func NeedsRepair(data []byte) bool {
	trimmed := bytes.TrimRight(data, " \t\r\n")
	return len(trimmed) > 0 && trimmed[len(trimmed)-1] == ','
}

// Repair drops the last two bytes of data and appends [ClosingSequence].
// It returns a new slice and leaves data untouched. The heuristic matches a
// trace that ends in exactly ",\n"; other truncation points are not handled.
func Repair(data []byte) []byte {
	n := len(data) - danglingBytes
	if n < 0 {
		n = 0
	}
	out := make([]byte, 0, n+len(ClosingSequence))
	out = append(out, data[:n]...)
	return append(out, ClosingSequence...)
}

// RepairFile applies [Repair] to the file at path in place and returns the
// repaired bytes. Compressed files are repaired in memory only.
func RepairFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "trace %s", path)
	}
	if err != nil {
		return nil, err
	}

	plain, c, err := Decompress(data)
	if err != nil {
		return nil, err
	}
	fixed := Repair(plain)
	if c != CompressionNone {
		return fixed, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, fixed, info.Mode().Perm()); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "write repaired trace %s", path)
	}
	return fixed, nil
}
