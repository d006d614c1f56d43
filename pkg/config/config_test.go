package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/matzehuels/qlogtree/pkg/cache"
	"github.com/matzehuels/qlogtree/pkg/errors"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() error: %v", err)
	}
	if cfg.Output.Timeline != "dep_tree_timeline.html" {
		t.Errorf("Output.Timeline = %q", cfg.Output.Timeline)
	}
	if !reflect.DeepEqual(cfg.Output.Formats, []string{"svg", "json"}) {
		t.Errorf("Output.Formats = %v", cfg.Output.Formats)
	}
	if cfg.Repair.Mode != RepairAsk {
		t.Errorf("Repair.Mode = %q, want ask", cfg.Repair.Mode)
	}
	if cfg.Cache.TTL.Duration != 30*24*time.Hour {
		t.Errorf("Cache.TTL = %v", cfg.Cache.TTL)
	}
}

func TestDecode(t *testing.T) {
	doc := `
[output]
timeline = "run.html"
formats = ["svg", "png"]

[repair]
mode = "yes"

[cache]
backend = "redis"
redis_url = "redis://cache:6379/1"
ttl = "2h"

[publish]
bucket = "traces"
prefix = "h3"
`
	cfg := Default()
	if err := Decode([]byte(doc), &cfg); err != nil {
		t.Fatalf("Decode() error: %v", err)
	}

	if cfg.Output.Timeline != "run.html" {
		t.Errorf("Output.Timeline = %q", cfg.Output.Timeline)
	}
	if !reflect.DeepEqual(cfg.Output.Formats, []string{"svg", "png"}) {
		t.Errorf("Output.Formats = %v", cfg.Output.Formats)
	}
	if cfg.Output.PNGScale != 2 {
		t.Errorf("Output.PNGScale = %v, want default 2", cfg.Output.PNGScale)
	}
	if cfg.Repair.Mode != RepairYes {
		t.Errorf("Repair.Mode = %q", cfg.Repair.Mode)
	}
	if cfg.Cache.Backend != cache.BackendRedis || cfg.Cache.RedisURL != "redis://cache:6379/1" {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Cache.TTL.Duration != 2*time.Hour {
		t.Errorf("Cache.TTL = %v, want 2h", cfg.Cache.TTL)
	}
	if cfg.Publish.Bucket != "traces" || cfg.Publish.Prefix != "h3" {
		t.Errorf("Publish = %+v", cfg.Publish)
	}
	if cfg.Archive.Database != AppName {
		t.Errorf("Archive.Database = %q, want default", cfg.Archive.Database)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"syntax", `[output`},
		{"unknown key", "[output]\ncolour = \"red\""},
		{"repair mode", "[repair]\nmode = \"maybe\""},
		{"cache backend", "[cache]\nbackend = \"memcached\""},
		{"format", "[output]\nformats = [\"gif\"]"},
		{"duration", "[cache]\nttl = \"forever\""},
		{"scale", "[output]\npng_scale = -1.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			if err := Decode([]byte(tt.doc), &cfg); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadMissingDefault(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(EnvRedisURL, "")
	t.Setenv(EnvMongoURI, "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Errorf("Load() = %+v, want defaults", cfg)
	}
}

func TestLoadMissingExplicit(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("Load() error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestLoadDefaultPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	t.Setenv(EnvRedisURL, "")
	t.Setenv(EnvMongoURI, "mongodb://db:27017")

	dir := filepath.Join(home, AppName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[serve]\naddr = \":9000\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Serve.Addr != ":9000" {
		t.Errorf("Serve.Addr = %q", cfg.Serve.Addr)
	}
	if cfg.Archive.URI != "mongodb://db:27017" {
		t.Errorf("Archive.URI = %q, want env override", cfg.Archive.URI)
	}
}

func TestLoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[repair]\nmode = 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("Load() error = %v, want INVALID_FORMAT", err)
	}
}

func TestDirs(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/cfg")
	t.Setenv("XDG_CACHE_HOME", "/tmp/cache")

	if dir, _ := Dir(); dir != filepath.Join("/tmp/cfg", AppName) {
		t.Errorf("Dir() = %q", dir)
	}
	if dir, _ := CacheDir(); dir != filepath.Join("/tmp/cache", AppName) {
		t.Errorf("CacheDir() = %q", dir)
	}
	if p, _ := Path(); p != filepath.Join("/tmp/cfg", AppName, "config.toml") {
		t.Errorf("Path() = %q", p)
	}
}

func TestDirsDefault(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	dir, err := CacheDir()
	if err != nil {
		t.Fatalf("CacheDir() error: %v", err)
	}
	if want := filepath.Join(home, ".cache", AppName); dir != want {
		t.Errorf("CacheDir() = %q, want %q", dir, want)
	}
}

func TestCacheConfig(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/cache")

	cfg := Default()
	cc, err := cfg.CacheConfig()
	if err != nil {
		t.Fatalf("CacheConfig() error: %v", err)
	}
	if cc.Backend != cache.BackendFile || cc.Dir != filepath.Join("/tmp/cache", AppName) {
		t.Errorf("CacheConfig() = %+v", cc)
	}

	cfg.Cache.Backend = cache.BackendNone
	if cc, _ = cfg.CacheConfig(); cc.Dir != "" {
		t.Errorf("CacheConfig() for none = %+v, want no dir", cc)
	}
}
