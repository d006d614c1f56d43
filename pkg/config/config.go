// Package config loads qlogtree's TOML configuration file.
//
// The file lives at $XDG_CONFIG_HOME/qlogtree/config.toml (falling back to
// ~/.config/qlogtree/config.toml) unless a path is given explicitly. Every
// key is optional; [Default] supplies the values used when a key or the
// whole file is absent. Command-line flags are applied on top by the CLI.
//
//	[output]
//	timeline = "dep_tree_timeline.html"
//	formats = ["svg", "json"]
//	png_scale = 2.0
//
//	[repair]
//	mode = "ask"          # ask | yes | no
//
//	[cache]
//	backend = "file"      # file | redis | none
//	redis_url = "redis://localhost:6379/0"
//	ttl = "720h"
//
//	[archive]
//	uri = "mongodb://localhost:27017"
//	database = "qlogtree"
//	collection = "snapshots"
//
//	[publish]
//	bucket = "my-bucket"
//	region = "eu-west-1"
//	prefix = "timelines"
//
//	[serve]
//	addr = ":8080"
//	max_body = 33554432
package config

import (
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/qlogtree/pkg/cache"
	"github.com/matzehuels/qlogtree/pkg/errors"
	"github.com/matzehuels/qlogtree/pkg/pipeline"
	"github.com/matzehuels/qlogtree/pkg/timeline"
)

// AppName names the config and cache directories.
const AppName = "qlogtree"

// Environment variables consulted by [Load].
const (
	EnvRedisURL = "QLOGTREE_REDIS_URL"
	EnvMongoURI = "QLOGTREE_MONGO_URI"
)

// Repair modes.
const (
	RepairAsk = "ask"
	RepairYes = "yes"
	RepairNo  = "no"
)

// Config is the decoded configuration file.
type Config struct {
	Output  Output  `toml:"output"`
	Repair  Repair  `toml:"repair"`
	Cache   Cache   `toml:"cache"`
	Archive Archive `toml:"archive"`
	Publish Publish `toml:"publish"`
	Serve   Serve   `toml:"serve"`
}

// Output controls the files written by a run.
type Output struct {
	Timeline string   `toml:"timeline"`
	Formats  []string `toml:"formats"`
	PNGScale float64  `toml:"png_scale"`
}

// Repair controls the unterminated-trace fix.
type Repair struct {
	Mode string `toml:"mode"`
}

// Cache selects the render cache backend.
type Cache struct {
	Backend  string   `toml:"backend"`
	Dir      string   `toml:"dir"`
	RedisURL string   `toml:"redis_url"`
	TTL      Duration `toml:"ttl"`
}

// Archive points at the MongoDB snapshot archive.
type Archive struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// Publish points at the S3 bucket timelines are uploaded to.
type Publish struct {
	Bucket string `toml:"bucket"`
	Region string `toml:"region"`
	Prefix string `toml:"prefix"`
}

// Serve configures the HTTP API.
type Serve struct {
	Addr    string `toml:"addr"`
	MaxBody int64  `toml:"max_body"`
}

// Duration is a time.Duration written as a string such as "720h".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Output: Output{
			Timeline: timeline.DefaultFileName,
			Formats:  slices.Clone(pipeline.DefaultFormats),
			PNGScale: pipeline.DefaultScale,
		},
		Repair: Repair{Mode: RepairAsk},
		Cache: Cache{
			Backend: cache.BackendFile,
			TTL:     Duration{pipeline.TTLArtifact},
		},
		Archive: Archive{
			Database:   AppName,
			Collection: "snapshots",
		},
		Serve: Serve{
			Addr:    ":8080",
			MaxBody: 32 << 20,
		},
	}
}

// Dir returns the configuration directory, $XDG_CONFIG_HOME/qlogtree or
// ~/.config/qlogtree.
func Dir() (string, error) {
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		return filepath.Join(home, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppName), nil
}

// CacheDir returns the render cache directory, $XDG_CACHE_HOME/qlogtree or
// ~/.cache/qlogtree.
func CacheDir() (string, error) {
	if home := os.Getenv("XDG_CACHE_HOME"); home != "" {
		return filepath.Join(home, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", AppName), nil
}

// Path returns the default configuration file path.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the configuration at path, or the default path when path is
// empty. A missing default file is not an error; a missing explicit file is.
// Environment overrides are applied after the file.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := Path()
		if err != nil {
			return applyEnv(cfg), nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err) && !explicit:
		return applyEnv(cfg), nil
	case os.IsNotExist(err):
		return Config{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
	case err != nil:
		return Config{}, err
	}

	if err := Decode(data, &cfg); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "config %s", path)
	}
	return applyEnv(cfg), nil
}

// Decode decodes TOML into cfg, keeping existing values for absent keys,
// and validates the result.
func Decode(data []byte, cfg *Config) error {
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return errors.New(errors.ErrCodeInvalidFormat, "unknown key %s", undecoded[0].String())
	}
	return cfg.Validate()
}

// Validate checks enumerated values.
func (c Config) Validate() error {
	switch c.Repair.Mode {
	case RepairAsk, RepairYes, RepairNo:
	default:
		return errors.New(errors.ErrCodeInvalidFormat, "repair mode %q (want ask, yes or no)", c.Repair.Mode)
	}
	switch c.Cache.Backend {
	case cache.BackendFile, cache.BackendRedis, cache.BackendNone:
	default:
		return errors.New(errors.ErrCodeInvalidFormat, "cache backend %q (want file, redis or none)", c.Cache.Backend)
	}
	for _, f := range c.Output.Formats {
		if err := pipeline.ValidateFormat(f); err != nil {
			return err
		}
	}
	if c.Output.PNGScale < 0 {
		return errors.New(errors.ErrCodeInvalidFormat, "png_scale must not be negative")
	}
	return nil
}

// CacheConfig returns the [cache.Config] for the selected backend. An unset
// cache directory resolves to [CacheDir].
func (c Config) CacheConfig() (cache.Config, error) {
	cc := cache.Config{
		Backend:  c.Cache.Backend,
		Dir:      c.Cache.Dir,
		RedisURL: c.Cache.RedisURL,
	}
	if cc.Backend == cache.BackendFile && cc.Dir == "" {
		dir, err := CacheDir()
		if err != nil {
			return cache.Config{}, err
		}
		cc.Dir = dir
	}
	return cc, nil
}

func applyEnv(cfg Config) Config {
	if v := os.Getenv(EnvRedisURL); v != "" {
		cfg.Cache.RedisURL = v
	}
	if v := os.Getenv(EnvMongoURI); v != "" {
		cfg.Archive.URI = v
	}
	return cfg
}
