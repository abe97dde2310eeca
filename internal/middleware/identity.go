package middleware

// identity.go reads the caller identity JWTAuth left in the Echo context.
// Rate-limit keys and handlers use it; anonymous callers are "anon".

import (
    "strconv"

    "github.com/labstack/echo/v4"
)

// StaffID returns the authenticated staff ID, if any.
func StaffID(c echo.Context) (uint64, bool) {
    id, ok := c.Get(CtxStaffID).(uint64)
    return id, ok && id > 0
}

// Role returns the authenticated role or "".
func Role(c echo.Context) string {
    r, _ := c.Get(CtxRole).(string)
    return r
}

func identityKey(c echo.Context) string {
    if id, ok := StaffID(c); ok {
        return strconv.FormatUint(id, 10)
    }
    return "anon"
}
