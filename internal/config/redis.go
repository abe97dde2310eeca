package config

// Redis backs the /v1 rate limiter and the list-route response cache.  Both
// degrade to pass-through when the client is nil, so a Redis outage at
// startup never stops the reservation service.

import (
    "context"
    "crypto/tls"
    "log/slog"
    "net"
    "time"

    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/restaurant-reservation/internal/lib/logger/sl"
)

type RedisConfig struct {
    Addr     string
    Password string
    DB       int
    TLS      bool
}

// LoadRedisConfig reads REDIS_HOST/REDIS_PORT (or the REDIS_ADDR
// shorthand), REDIS_PASSWORD, REDIS_DB and REDIS_TLS.
func LoadRedisConfig() RedisConfig {
    addr := envStr("REDIS_ADDR", "localhost:6379")
    if host, port := envStr("REDIS_HOST", ""), envStr("REDIS_PORT", ""); host != "" && port != "" {
        addr = net.JoinHostPort(host, port)
    }
    return RedisConfig{
        Addr:     addr,
        Password: envStr("REDIS_PASSWORD", ""),
        DB:       envInt("REDIS_DB", 0),
        TLS:      envBool("REDIS_TLS", false),
    }
}

// NewRedisClient connects and pings.  It returns nil when Redis is
// unreachable.
func NewRedisClient(cfg RedisConfig, log *slog.Logger) *redis.Client {
    const op = "config.NewRedisClient"

    opts := &redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}
    if cfg.TLS {
        host, _, _ := net.SplitHostPort(cfg.Addr)
        opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12, ServerName: host}
    }
    client := redis.NewClient(opts)

    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        log.Warn("redis unavailable; rate limit and cache disabled", slog.String("op", op), slog.String("addr", cfg.Addr), sl.Err(err))
        _ = client.Close()
        return nil
    }
    return client
}
