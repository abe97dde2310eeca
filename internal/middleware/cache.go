package middleware

import (
    "bytes"
    "context"
    "crypto/sha256"
    "encoding/hex"
    "encoding/json"
    "log/slog"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/restaurant-reservation/internal/config"
    "github.com/iliyamo/restaurant-reservation/internal/lib/logger/sl"
    "github.com/iliyamo/restaurant-reservation/internal/metrics"
)

// cachedResponse is what a cached list route stores in Redis.
type cachedResponse struct {
    Status      int    `json:"status"`
    ContentType string `json:"content_type,omitempty"`
    Body        []byte `json:"body"`
}

func encodePayload(status int, contentType string, body []byte) ([]byte, error) {
    return json.Marshal(cachedResponse{Status: status, ContentType: contentType, Body: body})
}

func decodePayload(bs []byte) (cachedResponse, bool) {
    var cr cachedResponse
    if err := json.Unmarshal(bs, &cr); err != nil || cr.Status == 0 {
        return cachedResponse{}, false
    }
    return cr, true
}

// bodyRecorder tees the response so a list can be stored after it was
// sent.  Bodies above limit are sent but never stored.
type bodyRecorder struct {
    http.ResponseWriter
    buf      bytes.Buffer
    limit    int
    overflow bool
}

func (r *bodyRecorder) Write(b []byte) (int, error) {
    if !r.overflow {
        if r.limit > 0 && r.buf.Len()+len(b) > r.limit {
            r.overflow = true
            r.buf.Reset()
        } else {
            r.buf.Write(b)
        }
    }
    return r.ResponseWriter.Write(b)
}

// cacheKeyFrom hashes the route and, for "route_query", the canonical
// query string so ?date=..&mobile_number=.. hits regardless of order.
func cacheKeyFrom(cfg config.CacheConfig, c echo.Context) string {
    parts := []string{c.Request().Method, c.Path()}
    if !strings.EqualFold(cfg.KeyStrategy, "route") {
        parts = append(parts, c.QueryParams().Encode())
    }
    sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
    return cfg.Prefix + ":" + hex.EncodeToString(sum[:16])
}

// NewRedisCache serves repeated reservation and table listings from Redis.
// Only 200 responses are stored; InvalidateCache drops them after writes.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client, m *metrics.Metrics) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    ttl := cfg.TTL
    if ttl <= 0 {
        ttl = 15 * time.Second
    }

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
                return next(c)
            }
            ctx := c.Request().Context()
            key := cacheKeyFrom(cfg, c)

            if bs, err := rdb.Get(ctx, key).Bytes(); err == nil {
                if cr, ok := decodePayload(bs); ok {
                    m.CacheResult("hit")
                    c.Response().Header().Set("X-Cache", "HIT")
                    return c.Blob(cr.Status, cr.ContentType, cr.Body)
                }
            }

            m.CacheResult("miss")
            rec := &bodyRecorder{ResponseWriter: c.Response().Writer, limit: cfg.MaxBodyBytes}
            c.Response().Writer = rec
            c.Response().Header().Set("X-Cache", "MISS")

            if err := next(c); err != nil {
                return err
            }
            if c.Response().Status != http.StatusOK || rec.overflow {
                return nil
            }
            payload, err := encodePayload(http.StatusOK, c.Response().Header().Get(echo.HeaderContentType), rec.buf.Bytes())
            if err == nil {
                // the request context may already be cancelled
                _ = rdb.Set(context.WithoutCancel(ctx), key, payload, ttl).Err()
            }
            return nil
        }
    }
}

// InvalidateCache drops every cached response under cfg.Prefix once a
// write succeeds (2xx).  A list read that started before the write can
// still store its older body after the purge; that entry lives at most
// cfg.TTL.  Failures are logged; the write already happened.
func InvalidateCache(cfg config.CacheConfig, rdb *redis.Client, log *slog.Logger) echo.MiddlewareFunc {
    const op = "middleware.InvalidateCache"

    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            err := next(c)
            if cfg.Methods[strings.ToUpper(c.Request().Method)] {
                return err
            }
            if status := c.Response().Status; err != nil || status < 200 || status > 299 {
                return err
            }
            if n, derr := purgePrefix(c.Request().Context(), rdb, cfg.Prefix); derr != nil {
                log.Warn("cache invalidation failed", slog.String("op", op), sl.Err(derr))
            } else if n > 0 {
                log.Debug("cache invalidated", slog.String("op", op), slog.Int("keys", n))
            }
            return err
        }
    }
}

func purgePrefix(ctx context.Context, rdb *redis.Client, prefix string) (int, error) {
    var (
        cursor  uint64
        deleted int
    )
    for {
        keys, next, err := rdb.Scan(ctx, cursor, prefix+":*", 100).Result()
        if err != nil {
            return deleted, err
        }
        if len(keys) > 0 {
            if err := rdb.Del(ctx, keys...).Err(); err != nil {
                return deleted, err
            }
            deleted += len(keys)
        }
        if next == 0 {
            return deleted, nil
        }
        cursor = next
    }
}
