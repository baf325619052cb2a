package keys

import (
	"strings"
)

const (
	// PfxHealthCheck is used for prefixing health check redis key
	PfxHealthCheck = "healthcheck"
	// PfxProxy prefixes the hash holding a proxy's implementation slot, admin and feed
	PfxProxy = "proxy"
	// PfxUpgradeLock prefixes the lock serializing upgrades of one proxy
	PfxUpgradeLock = "upgradeLock"
	// PfxPriceRound prefixes cached price feed rounds
	PfxPriceRound = "priceRound"
)

// CustomKey is used to join the customized key by componets with specified delimiter
func CustomKey(delimiter string, components ...string) string {
	return strings.Join(components, delimiter)
}

// RedisKey is used to join the redis key by componets
func RedisKey(components ...string) string {
	return CustomKey(":", components...)
}

// GetPrefix extracts the metric tag of a key, at most its first two components.
func GetPrefix(key string) string {
	s := strings.Split(key, ":")
	switch {
	case len(s) > 2:
		return strings.Join(s[:2], ":")
	case len(s) > 1:
		return s[0]
	}
	return ""
}
