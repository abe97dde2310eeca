package handler

import (
    "encoding/json"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/restaurant-reservation/internal/engine"
    "github.com/iliyamo/restaurant-reservation/internal/model"
    "github.com/iliyamo/restaurant-reservation/internal/queue"
)

// TableHandler serves /v1/tables and the seat/clear protocol.
type TableHandler struct{ *Deps }

func NewTableHandler(d *Deps) *TableHandler { return &TableHandler{Deps: d} }

// List handles GET /v1/tables, ordered by table_name.
func (h *TableHandler) List(c echo.Context) error {
    const op = "table.list"
    ts, err := h.Engine.ListTables(c.Request().Context())
    if err != nil {
        return h.fail(c, op, err)
    }
    return h.ok(c, op, http.StatusOK, ts)
}

// Create handles POST /v1/tables (MANAGER only).
func (h *TableHandler) Create(c echo.Context) error {
    const op = "table.create"
    raw, err := readData(c)
    if err != nil {
        return h.fail(c, op, err)
    }
    in, err := engine.DecodeTableInput(raw)
    if err != nil {
        return h.fail(c, op, err)
    }
    t, err := h.Engine.CreateTable(c.Request().Context(), in)
    if err != nil {
        return h.fail(c, op, err)
    }
    h.publish(c, tableEvent(queue.TableCreated, t, nil))
    return h.ok(c, op, http.StatusCreated, t)
}

// Get handles GET /v1/tables/:id.
func (h *TableHandler) Get(c echo.Context) error {
    const op = "table.get"
    id, ok := pathID(c, "id")
    if !ok {
        return badRequest(c, "invalid_id", "invalid table id")
    }
    t, err := h.Engine.GetTable(c.Request().Context(), id)
    if err != nil {
        return h.fail(c, op, err)
    }
    return h.ok(c, op, http.StatusOK, t)
}

// Seat handles PUT /v1/tables/:id/seat with {"data": {"reservation_id": N}}.
func (h *TableHandler) Seat(c echo.Context) error {
    const op = "table.seat"
    id, ok := pathID(c, "id")
    if !ok {
        return badRequest(c, "invalid_id", "invalid table id")
    }
    raw, err := readData(c)
    if err != nil || len(raw) == 0 {
        return badRequest(c, string(engine.ReasonMissingData), "missing data")
    }
    var body struct {
        ReservationID json.RawMessage `json:"reservation_id"`
    }
    if err := json.Unmarshal(raw, &body); err != nil {
        return badRequest(c, string(engine.ReasonMissingData), "data must be a JSON object")
    }
    var reservationID uint64
    if len(body.ReservationID) > 0 && json.Unmarshal(body.ReservationID, &reservationID) != nil {
        return badRequest(c, string(engine.ReasonMissingField), "reservation_id must be a reservation number")
    }

    t, err := h.Engine.SeatReservationAtTable(c.Request().Context(), id, reservationID)
    if err != nil {
        return h.fail(c, op, err)
    }
    h.Metrics.Transition(string(model.StatusSeated))
    h.publish(c, tableEvent(queue.TableSeated, t, &reservationID))
    return h.ok(c, op, http.StatusOK, t)
}

// Clear handles DELETE /v1/tables/:id/seat: frees the table and finishes
// the reservation that sat there.  The 200 body is {"data": reservation}
// with the finished reservation rather than an empty acknowledgement.
func (h *TableHandler) Clear(c echo.Context) error {
    const op = "table.clear"
    id, ok := pathID(c, "id")
    if !ok {
        return badRequest(c, "invalid_id", "invalid table id")
    }
    r, err := h.Engine.ClearTable(c.Request().Context(), id)
    if err != nil {
        return h.fail(c, op, err)
    }
    h.Metrics.Transition(string(r.Status))
    ev := reservationEvent(queue.TableCleared, r)
    ev.TableID = id
    h.publish(c, ev)
    return h.ok(c, op, http.StatusOK, r)
}

func tableEvent(t queue.EventType, tb model.Table, reservationID *uint64) queue.Event {
    ev := queue.Event{Type: t, TableID: tb.ID, TableName: tb.TableName}
    if reservationID != nil {
        ev.ReservationID = *reservationID
        ev.Status = string(model.StatusSeated)
    }
    return ev
}
