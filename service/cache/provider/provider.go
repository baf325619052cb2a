package provider

import (
	"errors"
	"time"

	"github.com/x-xyz/auctionproxy/base/ctx"
)

// ErrNotFound is a miss, including an entry whose ttl ran out.
var ErrNotFound = errors.New("cache entry not found")

// Provider stores encoded price rounds and ENS lookups. freecache backs a
// single process, redis is shared by the api and the deployer.
type Provider interface {
	// Get returns the value and its remaining ttl, 0 when it never expires
	Get(c ctx.Ctx, key string) ([]byte, time.Duration, error)
	// Set with ttl 0 keeps the entry until it is evicted or deleted
	Set(c ctx.Ctx, key string, value []byte, ttl time.Duration) error
	Del(c ctx.Ctx, key string) error
}
