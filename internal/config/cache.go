package config

import "time"

// CacheConfig drives the Redis cache in front of GET /v1/reservations and
// GET /v1/tables.  Writes to reservations or tables drop every key under
// Prefix, so TTL only bounds staleness for changes made outside the API.
type CacheConfig struct {
    Enabled      bool
    Methods      map[string]bool
    TTL          time.Duration
    KeyStrategy  string // route | route_query
    Prefix       string
    MaxBodyBytes int // larger listings are served but not stored
}

func LoadCacheConfig() CacheConfig {
    return CacheConfig{
        Enabled:      envBool("CACHE_ENABLED", true),
        Methods:      envSet("CACHE_METHODS", "GET"),
        TTL:          envDur("CACHE_TTL", 15*time.Second),
        KeyStrategy:  envStr("CACHE_KEY_STRATEGY", "route_query"),
        Prefix:       envStr("CACHE_PREFIX", "rr:cache"),
        MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 256<<10),
    }
}
