package handler // handler defines http handlers

import (
    "encoding/json"
    "errors"
    "io"
    "log/slog"
    "net/http"
    "strconv"

    "github.com/go-playground/validator/v10"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/restaurant-reservation/internal/engine"
    "github.com/iliyamo/restaurant-reservation/internal/lib/logger/sl"
    "github.com/iliyamo/restaurant-reservation/internal/metrics"
    "github.com/iliyamo/restaurant-reservation/internal/middleware"
    "github.com/iliyamo/restaurant-reservation/internal/queue"
    "github.com/iliyamo/restaurant-reservation/internal/service"
)

// maxBody caps request bodies read by readData.
const maxBody = 64 << 10

// Deps is shared by the reservation and table handlers.
type Deps struct {
    Engine  *engine.Engine
    Events  service.EventPublisher
    Metrics *metrics.Metrics
    Log     *slog.Logger
}

// Validator adapts go-playground/validator to echo's Validator.
type Validator struct{ v *validator.Validate }

func NewValidator() *Validator { return &Validator{v: validator.New()} }

func (cv *Validator) Validate(i interface{}) error { return cv.v.Struct(i) }

// readData unwraps the {"data": {...}} request envelope and returns the
// raw inner value, or nil when the body or the data member is missing.
func readData(c echo.Context) (json.RawMessage, error) {
    body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxBody))
    if err != nil {
        return nil, err
    }
    if len(body) == 0 {
        return nil, nil
    }
    var env struct {
        Data json.RawMessage `json:"data"`
    }
    if err := json.Unmarshal(body, &env); err != nil {
        return nil, nil
    }
    return env.Data, nil
}

// fail writes an engine error as {"error", "reason"} with the matching
// status code and counts it against op.
func (d *Deps) fail(c echo.Context, op string, err error) error {
    var ee *engine.Error
    if !errors.As(err, &ee) {
        d.Log.Error("unexpected error", slog.String("op", op), sl.Err(err))
        d.Metrics.Operation(op, "internal")
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error", "reason": "internal"})
    }

    reason := string(ee.Reason)
    if reason == "" {
        reason = ee.Kind.String()
    }
    d.Metrics.Operation(op, reason)

    status := http.StatusInternalServerError
    switch ee.Kind {
    case engine.KindValidation:
        status = http.StatusBadRequest
    case engine.KindNotFound:
        status = http.StatusNotFound
    case engine.KindConflict:
        status = http.StatusConflict
    }
    if status == http.StatusInternalServerError {
        // storage details stay in the log
        return c.JSON(status, echo.Map{"error": "storage failure", "reason": reason})
    }
    return c.JSON(status, echo.Map{"error": ee.Message, "reason": reason})
}

// ok writes {"data": v} and counts a success.
func (d *Deps) ok(c echo.Context, op string, status int, v any) error {
    d.Metrics.Operation(op, "ok")
    return c.JSON(status, echo.Map{"data": v})
}

// publish fires an event; broker trouble never fails the request.
func (d *Deps) publish(c echo.Context, ev queue.Event) {
    if d.Events == nil {
        return
    }
    if id, ok := middleware.StaffID(c); ok {
        ev.StaffID = id
    }
    if err := d.Events.Publish(c.Request().Context(), ev); err != nil {
        d.Log.Warn("event not published", slog.String("type", string(ev.Type)), sl.Err(err))
    }
}

func badRequest(c echo.Context, reason, msg string) error {
    return c.JSON(http.StatusBadRequest, echo.Map{"error": msg, "reason": reason})
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    return id, err == nil && id > 0
}
