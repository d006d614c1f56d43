package cli

import (
	"context"
	"os"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/qlogtree/pkg/cache"
	"github.com/matzehuels/qlogtree/pkg/classify"
	"github.com/matzehuels/qlogtree/pkg/config"
	"github.com/matzehuels/qlogtree/pkg/errors"
	"github.com/matzehuels/qlogtree/pkg/qlog"
	"github.com/matzehuels/qlogtree/pkg/remote"
)

// loadedTrace is a decoded trace ready for the pipeline.
type loadedTrace struct {
	Path     string
	Events   []qlog.Event
	Repaired bool
}

// validateRepairMode checks the --repair flag.
func validateRepairMode(mode string) error {
	switch mode {
	case config.RepairAsk, config.RepairYes, config.RepairNo:
		return nil
	}
	return errors.New(errors.ErrCodeInvalidArguments, "invalid --repair %q (must be ask, yes or no)", mode)
}

// loadTrace reads the trace at path, which may also be an http(s) URL. A
// trace left unterminated by its writer is repaired when mode allows it;
// repaired plain-text files are rewritten in place, downloads are repaired in
// memory.
func (c *CLI) loadTrace(ctx context.Context, path, mode string) (*loadedTrace, error) {
	logger := log.FromContext(ctx)
	if err := validateRepairMode(mode); err != nil {
		return nil, err
	}

	data, err := c.readTrace(ctx, path)
	if err != nil {
		return nil, err
	}
	plain, compression, err := qlog.Decompress(data)
	if err != nil {
		return nil, err
	}
	logger.Debug("trace read", "path", path, "bytes", len(plain), "compression", compression)

	lt := &loadedTrace{Path: path}
	if qlog.NeedsRepair(plain) {
		fix, err := c.shouldRepair(mode)
		if err != nil {
			return nil, err
		}
		switch {
		case fix && remote.IsURL(path):
			plain = qlog.Repair(plain)
			lt.Repaired = true
			logger.Info("Repaired unterminated trace in memory", "url", path)
		case fix:
			if plain, err = qlog.RepairFile(path); err != nil {
				return nil, err
			}
			lt.Repaired = true
			logger.Info("Repaired unterminated trace", "path", path)
		default:
			logger.Warn("trace looks unterminated; decoding as is", "path", path)
		}
	}

	tr, err := qlog.DecodeBytes(plain)
	if err != nil {
		return nil, err
	}
	if lt.Events, err = tr.Events(); err != nil {
		return nil, err
	}
	for _, ev := range classify.Skipped(lt.Events) {
		logger.Debug("GET without stream_id or uri", "time", ev.Time)
	}
	logger.Debug("trace decoded", "events", len(lt.Events), "version", tr.Version)
	return lt, nil
}

// readTrace returns the raw bytes of a local file or a downloaded trace.
// Downloads are cached alongside rendered snapshots.
func (c *CLI) readTrace(ctx context.Context, path string) ([]byte, error) {
	if !remote.IsURL(path) {
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "trace %s", path)
		}
		return data, err
	}

	rc, err := c.openCache(ctx, false)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	client := remote.NewClient(rc, cache.NewScopedKeyer(nil, keyPrefix), remote.DefaultTTL)
	data, cached, err := client.Fetch(ctx, path, false)
	if err != nil {
		return nil, err
	}
	log.FromContext(ctx).Debug("trace downloaded", "url", path, "bytes", len(data), "cached", cached)
	return data, nil
}

func (c *CLI) shouldRepair(mode string) (bool, error) {
	switch mode {
	case config.RepairYes:
		return true, nil
	case config.RepairNo:
		return false, nil
	}
	if c.Confirm == nil {
		return false, nil
	}
	return c.Confirm("Fix qlog file?")
}
