// Package cache provides response caching for search and trending results,
// keyed by a normalized query hash. Backends share one small interface so
// the serving layer can run against Redis, process memory, or nothing.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/devseek/devseek/internal/model"
)

// Default entry lifetimes.
const (
	SearchTTL   = 10 * time.Minute
	TrendingTTL = 30 * time.Minute
)

// TrendingKey is the fixed key for the trending snapshot.
const TrendingKey = "devseek:trending:v1"

// Cache stores serialized responses under derived keys.
type Cache interface {
	// Get returns the payload stored under key. A miss is (nil, false, nil);
	// the error is reserved for backend failures.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores payload under key for ttl. A non-positive ttl stores the
	// entry without expiry.
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error

	// Del removes the given keys.
	Del(ctx context.Context, keys ...string) error

	// Close releases backend resources.
	Close() error
}

// SearchKey derives a stable key from the normalized query and request
// options. Hashing keeps keys a fixed length regardless of query size.
func SearchKey(query string, sources []model.Source, maxResults int) string {
	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = s.String()
	}
	sort.Strings(names)

	normalized := strings.ToLower(strings.TrimSpace(query))
	combined := fmt.Sprintf("%s\x00%s\x00%d", normalized, strings.Join(names, ","), maxResults)
	hash := sha256.Sum256([]byte(combined))
	return "devseek:search:" + hex.EncodeToString(hash[:])
}

// Noop is a Cache that stores nothing. Every Get is a miss.
type Noop struct{}

var _ Cache = Noop{}

func (Noop) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (Noop) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (Noop) Del(context.Context, ...string) error                     { return nil }
func (Noop) Close() error                                             { return nil }
