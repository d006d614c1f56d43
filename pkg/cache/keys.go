package cache

import (
	"crypto/sha256"
	"encoding/hex"

	json "github.com/goccy/go-json"
)

// Keyer derives cache keys.
type Keyer interface {
	// ArtifactKey identifies one rendered snapshot.
	ArtifactKey(dotHash string, opts ArtifactKeyOpts) string
	// TimelineKey identifies a complete timeline rendered from a trace.
	TimelineKey(traceHash string, opts TimelineKeyOpts) string
	// TraceKey identifies a trace downloaded from url.
	TraceKey(url string) string
}

// ArtifactKeyOpts are the render settings that change an artifact's bytes.
type ArtifactKeyOpts struct {
	Format string  `json:"format"`
	Scale  float64 `json:"scale,omitempty"`
}

// TimelineKeyOpts are the pipeline settings that change a timeline's bytes.
type TimelineKeyOpts struct {
	Title            string `json:"title,omitempty"`
	Repair           bool   `json:"repair,omitempty"`
	SkipUnclassified bool   `json:"skip_unclassified,omitempty"`
}

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// DefaultKeyer produces "<kind>:<sha256>" keys, hashing the JSON encoding of
// the key components so that any change to the options yields a new key.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) ArtifactKey(dotHash string, opts ArtifactKeyOpts) string {
	return digest("artifact", dotHash, opts)
}

func (DefaultKeyer) TimelineKey(traceHash string, opts TimelineKeyOpts) string {
	return digest("timeline", traceHash, opts)
}

func (DefaultKeyer) TraceKey(url string) string {
	return digest("trace", url)
}

func digest(kind string, parts ...any) string {
	h := sha256.New()
	// Encoding strings, bools and numbers cannot fail.
	_ = json.NewEncoder(h).Encode(parts)
	return kind + ":" + hex.EncodeToString(h.Sum(nil))
}

// ScopedKeyer prefixes every key of an inner [Keyer], which keeps several
// deployments apart on one Redis instance.
//
//	keyer := cache.NewScopedKeyer(nil, "qlogtree:")
type ScopedKeyer struct {
	Keyer
	Prefix string
}

// NewScopedKeyer wraps inner, or the default keyer when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = DefaultKeyer{}
	}
	return ScopedKeyer{Keyer: inner, Prefix: prefix}
}

func (k ScopedKeyer) ArtifactKey(dotHash string, opts ArtifactKeyOpts) string {
	return k.Prefix + k.Keyer.ArtifactKey(dotHash, opts)
}

func (k ScopedKeyer) TimelineKey(traceHash string, opts TimelineKeyOpts) string {
	return k.Prefix + k.Keyer.TimelineKey(traceHash, opts)
}

func (k ScopedKeyer) TraceKey(url string) string {
	return k.Prefix + k.Keyer.TraceKey(url)
}
