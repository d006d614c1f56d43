// Package remote downloads qlog traces over HTTP(S).
//
// Traces published by test harnesses are often served from a bucket or a
// results page. [Client] fetches them with retries and keeps the bytes in the
// render cache, so a timeline can be rebuilt without downloading again:
//
//	c := remote.NewClient(rc, nil, 24*time.Hour)
//	data, cached, err := c.Fetch(ctx, "https://results.example/run1/client.qlog", false)
package remote

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/matzehuels/qlogtree/pkg/buildinfo"
	"github.com/matzehuels/qlogtree/pkg/cache"
	"github.com/matzehuels/qlogtree/pkg/errors"
	"github.com/matzehuels/qlogtree/pkg/observability"
)

const (
	// DefaultTimeout bounds a single download attempt.
	DefaultTimeout = 60 * time.Second

	// DefaultTTL is how long downloaded traces stay cached.
	DefaultTTL = 24 * time.Hour

	// MaxSize caps the size of a downloaded trace.
	MaxSize = 512 << 20
)

// errNetwork marks transport failures and server errors.
var errNetwork = stderrors.New("network error")

// IsURL reports whether arg names a remote trace rather than a local file.
func IsURL(arg string) bool {
	return strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://")
}

// Client downloads traces and caches their bytes.
type Client struct {
	http    *http.Client
	cache   cache.Cache
	keyer   cache.Keyer
	ttl     time.Duration
	backoff cache.Backoff
	headers map[string]string
}

// NewClient creates a client backed by c. A nil cache disables caching and a
// nil keyer uses [cache.DefaultKeyer].
func NewClient(c cache.Cache, keyer cache.Keyer, ttl time.Duration) *Client {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	return &Client{
		http:    &http.Client{Timeout: DefaultTimeout},
		cache:   c,
		keyer:   keyer,
		ttl:     ttl,
		backoff: cache.DefaultBackoff,
		headers: map[string]string{"User-Agent": buildinfo.UserAgent()},
	}
}

// WithBackoff returns a copy of c that retries with b.
func (c *Client) WithBackoff(b cache.Backoff) *Client {
	cp := *c
	cp.backoff = b
	return &cp
}

// Fetch returns the body at url and whether it came from the cache. With
// refresh set the cache is bypassed but still updated.
func (c *Client) Fetch(ctx context.Context, url string, refresh bool) ([]byte, bool, error) {
	key := c.keyer.TraceKey(url)
	hooks := observability.Cache()

	if !refresh {
		if data, ok, err := c.cache.Get(ctx, key); err == nil && ok {
			hooks.OnCacheHit(ctx, "trace")
			return data, true, nil
		}
		hooks.OnCacheMiss(ctx, "trace")
	}

	var data []byte
	err := c.backoff.Retry(ctx, func() error {
		var err error
		data, err = c.get(ctx, url)
		return err
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, false, err
	}

	if err := c.cache.Set(ctx, key, data, c.ttl); err == nil {
		hooks.OnCacheSet(ctx, "trace", len(data))
	}
	return data, false, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidArguments, err, "trace url %s", url)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, cache.Retryable(fmt.Errorf("%w: %v", errNetwork, err))
	}
	defer resp.Body.Close()

	if err := checkStatus(url, resp.StatusCode); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxSize+1))
	if err != nil {
		return nil, cache.Retryable(fmt.Errorf("%w: read %s: %v", errNetwork, url, err))
	}
	if len(data) > MaxSize {
		return nil, errors.New(errors.ErrCodeInvalidInput, "trace %s exceeds %d bytes", url, MaxSize)
	}
	return data, nil
}

func checkStatus(url string, code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return errors.New(errors.ErrCodeFileNotFound, "trace %s: status %d", url, code)
	case code == http.StatusTooManyRequests, code >= 500:
		return cache.Retryable(fmt.Errorf("%w: %s: status %d", errNetwork, url, code))
	default:
		return errors.New(errors.ErrCodeInvalidInput, "trace %s: status %d", url, code)
	}
}
