package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "net/http"
    "strings"

    "github.com/golang-jwt/jwt/v5"
    "github.com/labstack/echo/v4"
)

// Context keys set by JWTAuth.
const (
    CtxStaffID = "staff_id"
    CtxRole    = "role"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// injects the staff ID (uint64) and role (string) into the context.  The
// provided secret must match the one used when issuing tokens.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            raw := strings.TrimPrefix(auth, "Bearer ")

            claims, err := ParseAccessToken(secret, raw)
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }
            c.Set(CtxStaffID, claims.StaffID)
            c.Set(CtxRole, claims.Role)
            return next(c)
        }
    }
}

// AccessClaims is what the API needs from an access token.
type AccessClaims struct {
    StaffID uint64
    Role    string
}

// ParseAccessToken verifies an HS256 token and extracts its sub and role
// claims.  The logout handler uses it without the middleware.
func ParseAccessToken(secret, raw string) (AccessClaims, error) {
    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        return []byte(secret), nil
    }, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
    if err != nil {
        return AccessClaims{}, err
    }
    mc, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return AccessClaims{}, jwt.ErrTokenInvalidClaims
    }
    // numeric claims decode as float64
    sub, ok := mc["sub"].(float64)
    if !ok || sub < 1 {
        return AccessClaims{}, jwt.ErrTokenInvalidClaims
    }
    role, _ := mc["role"].(string)
    if role == "" {
        return AccessClaims{}, jwt.ErrTokenInvalidClaims
    }
    return AccessClaims{StaffID: uint64(sub), Role: role}, nil
}
