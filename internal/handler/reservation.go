package handler

import (
    "encoding/json"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/restaurant-reservation/internal/engine"
    "github.com/iliyamo/restaurant-reservation/internal/model"
    "github.com/iliyamo/restaurant-reservation/internal/queue"
)

// ReservationHandler serves /v1/reservations.
type ReservationHandler struct{ *Deps }

func NewReservationHandler(d *Deps) *ReservationHandler { return &ReservationHandler{Deps: d} }

// List handles GET /v1/reservations?date=YYYY-MM-DD or ?mobile_number=digits.
// Without a filter every reservation is returned.
func (h *ReservationHandler) List(c echo.Context) error {
    const op = "reservation.list"
    rs, err := h.Engine.ListReservations(c.Request().Context(), engine.ReservationQuery{
        Date:   c.QueryParam("date"),
        Mobile: c.QueryParam("mobile_number"),
    })
    if err != nil {
        return h.fail(c, op, err)
    }
    return h.ok(c, op, http.StatusOK, rs)
}

// Create handles POST /v1/reservations.
func (h *ReservationHandler) Create(c echo.Context) error {
    const op = "reservation.create"
    in, err := h.decode(c)
    if err != nil {
        return h.fail(c, op, err)
    }
    r, err := h.Engine.CreateReservation(c.Request().Context(), in)
    if err != nil {
        return h.fail(c, op, err)
    }
    h.Metrics.Transition(string(r.Status))
    h.publish(c, reservationEvent(queue.ReservationCreated, r))
    return h.ok(c, op, http.StatusCreated, r)
}

// Get handles GET /v1/reservations/:id.
func (h *ReservationHandler) Get(c echo.Context) error {
    const op = "reservation.get"
    id, ok := pathID(c, "id")
    if !ok {
        return badRequest(c, "invalid_id", "invalid reservation id")
    }
    r, err := h.Engine.GetReservation(c.Request().Context(), id)
    if err != nil {
        return h.fail(c, op, err)
    }
    return h.ok(c, op, http.StatusOK, r)
}

// Update handles PUT /v1/reservations/:id.  The body must be a complete,
// valid reservation; only booked reservations can be edited.
func (h *ReservationHandler) Update(c echo.Context) error {
    const op = "reservation.update"
    id, ok := pathID(c, "id")
    if !ok {
        return badRequest(c, "invalid_id", "invalid reservation id")
    }
    in, err := h.decode(c)
    if err != nil {
        return h.fail(c, op, err)
    }
    r, err := h.Engine.UpdateReservation(c.Request().Context(), id, in)
    if err != nil {
        return h.fail(c, op, err)
    }
    h.publish(c, reservationEvent(queue.ReservationUpdated, r))
    return h.ok(c, op, http.StatusOK, r)
}

// SetStatus handles PUT /v1/reservations/:id/status with
// {"data": {"status": "cancelled"}}.
func (h *ReservationHandler) SetStatus(c echo.Context) error {
    const op = "reservation.status"
    id, ok := pathID(c, "id")
    if !ok {
        return badRequest(c, "invalid_id", "invalid reservation id")
    }
    raw, err := readData(c)
    if err != nil {
        return badRequest(c, string(engine.ReasonMissingData), "unreadable body")
    }
    var body struct {
        Status string `json:"status"`
    }
    if len(raw) == 0 || json.Unmarshal(raw, &body) != nil {
        return badRequest(c, string(engine.ReasonMissingData), "missing data")
    }

    r, err := h.Engine.SetReservationStatus(c.Request().Context(), id, body.Status)
    if err != nil {
        return h.fail(c, op, err)
    }
    h.Metrics.Transition(string(r.Status))
    h.publish(c, reservationEvent(queue.ReservationStatusChanged, r))
    return h.ok(c, op, http.StatusOK, echo.Map{"status": r.Status})
}

func (h *ReservationHandler) decode(c echo.Context) (engine.ReservationInput, error) {
    raw, err := readData(c)
    if err != nil {
        return engine.ReservationInput{}, err
    }
    return engine.DecodeReservationInput(raw)
}

func reservationEvent(t queue.EventType, r model.Reservation) queue.Event {
    return queue.Event{
        Type:            t,
        ReservationID:   r.ID,
        Status:          string(r.Status),
        People:          r.People,
        ReservationDate: r.ReservationDate,
        ReservationTime: r.ReservationTime,
    }
}
