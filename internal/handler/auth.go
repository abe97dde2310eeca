package handler

import (
    "context"
    "errors"
    "log/slog"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/restaurant-reservation/internal/config"
    "github.com/iliyamo/restaurant-reservation/internal/lib/logger/sl"
    "github.com/iliyamo/restaurant-reservation/internal/middleware"
    "github.com/iliyamo/restaurant-reservation/internal/model"
    "github.com/iliyamo/restaurant-reservation/internal/storage"
    "github.com/iliyamo/restaurant-reservation/internal/utils"
)

// AuthHandler bundles dependencies for staff auth endpoints.
type AuthHandler struct {
    Cfg    config.Config
    Staff  storage.StaffStore
    Tokens storage.TokenStore
    Log    *slog.Logger
}

func NewAuthHandler(cfg config.Config, s storage.StaffStore, t storage.TokenStore, log *slog.Logger) *AuthHandler {
    return &AuthHandler{Cfg: cfg, Staff: s, Tokens: t, Log: log}
}

// ----- DTOs -----

type registerReq struct {
    Email    string `json:"email" validate:"required,email"`
    Password string `json:"password" validate:"required,min=8,max=72"`
    Role     string `json:"role" validate:"omitempty,oneof=HOST MANAGER"`
}
type loginReq struct {
    Email    string `json:"email" validate:"required,email"`
    Password string `json:"password" validate:"required"`
}
type refreshReq struct {
    RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
    Token   string    `json:"token"`
    Expires time.Time `json:"expires"`
}
type staffPart struct {
    ID    uint64 `json:"id"`
    Email string `json:"email"`
    Role  string `json:"role"`
}
type authResp struct {
    Staff   staffPart `json:"staff"`
    Access  tokenPart `json:"access"`
    Refresh tokenPart `json:"refresh"`
}

// Register: create a staff account (HOST unless MANAGER is requested) and
// return tokens immediately.
func (h *AuthHandler) Register(c echo.Context) error {
    const op = "handler.AuthHandler.Register"

    var req registerReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Email = storage.NormalizeEmail(req.Email)
    req.Role = strings.ToUpper(strings.TrimSpace(req.Role))
    if err := c.Validate(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "email, password (8+ chars) required; role must be HOST or MANAGER"})
    }
    if req.Role == "" {
        req.Role = model.RoleHost
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
    if err != nil {
        h.Log.Error("hash password", slog.String("op", op), sl.Err(err))
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create staff failed"})
    }
    id, err := h.Staff.CreateStaff(ctx, req.Email, hash, req.Role)
    if err != nil {
        if errors.Is(err, storage.ErrEmailExists) {
            return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
        }
        h.Log.Error("create staff", slog.String("op", op), sl.Err(err))
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create staff failed"})
    }
    return h.issue(ctx, c, http.StatusCreated, model.Staff{ID: id, Email: req.Email, Role: req.Role})
}

// Login: verify credentials and return a new pair.
func (h *AuthHandler) Login(c echo.Context) error {
    const op = "handler.AuthHandler.Login"

    var req loginReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Email = storage.NormalizeEmail(req.Email)
    if err := c.Validate(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    s, err := h.Staff.StaffByEmail(ctx, req.Email)
    if err != nil {
        if errors.Is(err, storage.ErrStaffNotFound) {
            utils.VerifyPassword("", req.Password)
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
        }
        h.Log.Error("load staff", slog.String("op", op), sl.Err(err))
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    if !s.IsActive || !utils.VerifyPassword(s.PasswordHash, req.Password) {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
    }
    return h.issue(ctx, c, http.StatusOK, s)
}

// Refresh: validate by hash, revoke old, issue new.
func (h *AuthHandler) Refresh(c echo.Context) error {
    const op = "handler.AuthHandler.Refresh"

    var req refreshReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
    }
    hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    staffID, err := h.Tokens.ValidateRefresh(ctx, hash)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
    }
    if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
        h.Log.Warn("revoke rotated token", slog.String("op", op), sl.Err(err))
    }

    s, err := h.Staff.StaffByID(ctx, staffID)
    if err != nil || !s.IsActive {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
    }
    return h.issue(ctx, c, http.StatusOK, s)
}

// Logout revokes the refresh token in the body, or every token of the
// bearer when no refresh token is sent.
func (h *AuthHandler) Logout(c echo.Context) error {
    var req refreshReq
    _ = c.Bind(&req)
    refresh := strings.TrimSpace(req.RefreshToken)

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if refresh != "" {
        hash := utils.HashRefreshRaw(refresh)
        if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
        }
        if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
        }
        return c.NoContent(http.StatusNoContent)
    }

    auth := c.Request().Header.Get("Authorization")
    if strings.HasPrefix(auth, "Bearer ") {
        claims, err := middleware.ParseAccessToken(h.Cfg.JWTSecret, strings.TrimPrefix(auth, "Bearer "))
        if err != nil {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
        }
        if err := h.Tokens.RevokeAllForStaff(ctx, claims.StaffID); err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
        }
        return c.NoContent(http.StatusNoContent)
    }
    return c.JSON(http.StatusBadRequest, echo.Map{"error": "provide Authorization header or refresh_token"})
}

// Me returns the caller's identity.
func (h *AuthHandler) Me(c echo.Context) error {
    id, _ := middleware.StaffID(c)
    return c.JSON(http.StatusOK, echo.Map{"staff_id": id, "role": middleware.Role(c)})
}

func (h *AuthHandler) issue(ctx context.Context, c echo.Context, status int, s model.Staff) error {
    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, s.ID, s.Role, h.Cfg.AccessTTLMin)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
    }
    refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue refresh failed"})
    }
    if err := h.Tokens.StoreRefresh(ctx, s.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save refresh failed"})
    }
    return c.JSON(status, authResp{
        Staff:   staffPart{ID: s.ID, Email: s.Email, Role: s.Role},
        Access:  tokenPart{Token: access.Token, Expires: access.Exp},
        Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
    })
}
