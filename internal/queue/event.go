// Package queue defines the reservation lifecycle events exchanged over the
// message broker and the consumer that records them.
package queue

import (
    "fmt"
    "strings"
    "time"
)

// QueueName is the durable queue every lifecycle event is published to.
const QueueName = "reservation.events"

// EventType names a state change.
type EventType string

const (
    ReservationCreated       EventType = "reservation.created"
    ReservationUpdated       EventType = "reservation.updated"
    ReservationStatusChanged EventType = "reservation.status_changed"
    TableCreated             EventType = "table.created"
    TableSeated              EventType = "table.seated"
    TableCleared             EventType = "table.cleared"
)

// Event carries enough of the changed rows for consumers to log or notify
// without reading the database.
type Event struct {
    ID              string    `json:"id"`
    Type            EventType `json:"type"`
    OccurredAt      time.Time `json:"occurred_at"`
    StaffID         uint64    `json:"staff_id,omitempty"`
    ReservationID   uint64    `json:"reservation_id,omitempty"`
    Status          string    `json:"status,omitempty"`
    People          int       `json:"people,omitempty"`
    ReservationDate string    `json:"reservation_date,omitempty"`
    ReservationTime string    `json:"reservation_time,omitempty"`
    TableID         uint64    `json:"table_id,omitempty"`
    TableName       string    `json:"table_name,omitempty"`
}

// LogLine renders the event as one line of logs/reservations.log.
func (e Event) LogLine() string {
    var b strings.Builder
    fmt.Fprintf(&b, "[%s] %s | id=%s", e.OccurredAt.UTC().Format(time.RFC3339), e.Type, e.ID)
    if e.ReservationID != 0 {
        fmt.Fprintf(&b, " | reservation_id=%d", e.ReservationID)
    }
    if e.Status != "" {
        fmt.Fprintf(&b, " | status=%s", e.Status)
    }
    if e.ReservationDate != "" {
        fmt.Fprintf(&b, " | at=%s %s", e.ReservationDate, e.ReservationTime)
    }
    if e.People != 0 {
        fmt.Fprintf(&b, " | people=%d", e.People)
    }
    if e.TableID != 0 {
        fmt.Fprintf(&b, " | table_id=%d | table=%q", e.TableID, e.TableName)
    }
    if e.StaffID != 0 {
        fmt.Fprintf(&b, " | staff_id=%d", e.StaffID)
    }
    b.WriteByte('\n')
    return b.String()
}
