package redis

import (
	"errors"
	"time"

	"github.com/x-xyz/auctionproxy/base/ctx"
)

const (
	// Forever keeps a key without expiration
	Forever = time.Duration(0)
)

var (
	ErrNotFound = errors.New("redis: key not found")
	ErrNoTTL    = errors.New("redis: key has no ttl")
)

// Service is the subset of redis commands used by the proxy state store, the
// upgrade lock and the cache provider.
type Service interface {
	Get(c ctx.Ctx, key string) ([]byte, error)
	Set(c ctx.Ctx, key string, val []byte, expire time.Duration) error
	// SetNX reports whether the key was set
	SetNX(c ctx.Ctx, key string, val []byte, expire time.Duration) (bool, error)
	Del(c ctx.Ctx, ks ...string) (int, error)
	// DelIfEqual deletes key only while it still holds val
	DelIfEqual(c ctx.Ctx, key string, val []byte) (bool, error)

	HSet(c ctx.Ctx, key, field string, val []byte, expire time.Duration) error
	HSetNX(c ctx.Ctx, key, field string, val []byte, expire time.Duration) (bool, error)
	HGetAll(c ctx.Ctx, key string) (map[string][]byte, error)

	Exists(c ctx.Ctx, key string) (bool, error)
	TTL(c ctx.Ctx, key string) (int, error)
}
