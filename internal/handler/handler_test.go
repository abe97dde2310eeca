package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/restaurant-reservation/internal/config"
	"github.com/iliyamo/restaurant-reservation/internal/engine"
	"github.com/iliyamo/restaurant-reservation/internal/storage/memory"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func newContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	return m
}

func TestFailMapsKinds(t *testing.T) {
	d := &Deps{Log: discard}
	e := engine.New(memory.New())
	ctx := context.Background()

	in, err := engine.DecodeTableInput([]byte(`{"table_name": "Bar #1", "capacity": 2}`))
	require.NoError(t, err)
	free, err := e.CreateTable(ctx, in)
	require.NoError(t, err)

	_, notFound := e.GetTable(ctx, 99)
	_, notOccupied := e.ClearTable(ctx, free.ID)
	_, missing := engine.DecodeTableInput(nil)

	tests := []struct {
		name   string
		err    error
		status int
		reason string
	}{
		{"not found", notFound, http.StatusNotFound, "table_not_found"},
		{"conflict", notOccupied, http.StatusConflict, "table_not_occupied"},
		{"validation", missing, http.StatusBadRequest, "missing_data"},
		{"plain", errors.New("boom"), http.StatusInternalServerError, "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Error(t, tt.err)
			c, rec := newContext(http.MethodGet, "/", "")
			require.NoError(t, d.fail(c, "op", tt.err))
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.reason, decodeBody(t, rec)["reason"])
		})
	}
}

func TestReadDataEnvelope(t *testing.T) {
	c, _ := newContext(http.MethodPost, "/", `{"data": {"table_name": "#1"}}`)
	raw, err := readData(c)
	require.NoError(t, err)
	assert.JSONEq(t, `{"table_name": "#1"}`, string(raw))

	for _, body := range []string{``, `{}`, `not json`, `{"table_name": "#1"}`} {
		c, _ := newContext(http.MethodPost, "/", body)
		raw, err := readData(c)
		require.NoError(t, err)
		assert.Empty(t, raw, body)
	}
}

func TestHealth(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/healthz", "")
	require.NoError(t, Health(nil)(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func newAuthHandler() *AuthHandler {
	store := memory.New()
	cfg := config.Config{JWTSecret: "s", AccessTTLMin: 5, RefreshTTLDays: 1, BcryptCost: bcrypt.MinCost}
	return NewAuthHandler(cfg, store, store, discard)
}

func TestAuthFlow(t *testing.T) {
	h := newAuthHandler()

	c, rec := newContext(http.MethodPost, "/v1/auth/register", `{"email":"Host@Example.com","password":"longenough"}`)
	require.NoError(t, h.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)
	reg := decodeBody(t, rec)
	staff := reg["staff"].(map[string]any)
	assert.Equal(t, "host@example.com", staff["email"])
	assert.Equal(t, "HOST", staff["role"])

	c, rec = newContext(http.MethodPost, "/v1/auth/register", `{"email":"host@example.com","password":"longenough"}`)
	require.NoError(t, h.Register(c))
	assert.Equal(t, http.StatusConflict, rec.Code)

	c, rec = newContext(http.MethodPost, "/v1/auth/login", `{"email":"host@example.com","password":"wrong-password"}`)
	require.NoError(t, h.Login(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	c, rec = newContext(http.MethodPost, "/v1/auth/login", `{"email":"host@example.com","password":"longenough"}`)
	require.NoError(t, h.Login(c))
	require.Equal(t, http.StatusOK, rec.Code)
	refresh := decodeBody(t, rec)["refresh"].(map[string]any)["token"].(string)

	// rotation: the old refresh token stops working
	c, rec = newContext(http.MethodPost, "/v1/auth/refresh", `{"refresh_token":"`+refresh+`"}`)
	require.NoError(t, h.Refresh(c))
	require.Equal(t, http.StatusOK, rec.Code)
	rotated := decodeBody(t, rec)["refresh"].(map[string]any)["token"].(string)

	c, rec = newContext(http.MethodPost, "/v1/auth/refresh", `{"refresh_token":"`+refresh+`"}`)
	require.NoError(t, h.Refresh(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	c, rec = newContext(http.MethodPost, "/v1/auth/logout", `{"refresh_token":"`+rotated+`"}`)
	require.NoError(t, h.Logout(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRegisterValidation(t *testing.T) {
	h := newAuthHandler()
	for _, body := range []string{
		`{"email":"not-an-email","password":"longenough"}`,
		`{"email":"a@b.co","password":"short"}`,
		`{"email":"a@b.co","password":"longenough","role":"OWNER"}`,
	} {
		c, rec := newContext(http.MethodPost, "/v1/auth/register", body)
		require.NoError(t, h.Register(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestLogoutWithBearerRevokesAll(t *testing.T) {
	h := newAuthHandler()
	c, rec := newContext(http.MethodPost, "/v1/auth/register", `{"email":"m@example.com","password":"longenough","role":"manager"}`)
	require.NoError(t, h.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "MANAGER", body["staff"].(map[string]any)["role"])
	access := body["access"].(map[string]any)["token"].(string)
	refresh := body["refresh"].(map[string]any)["token"].(string)

	c, rec = newContext(http.MethodPost, "/v1/auth/logout", ``)
	c.Request().Header.Set("Authorization", "Bearer "+access)
	require.NoError(t, h.Logout(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	c, rec = newContext(http.MethodPost, "/v1/auth/refresh", `{"refresh_token":"`+refresh+`"}`)
	require.NoError(t, h.Refresh(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	c, rec = newContext(http.MethodPost, "/v1/auth/logout", ``)
	require.NoError(t, h.Logout(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
