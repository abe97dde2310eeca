package model

import "time"

// Table is a physical seating resource with a fixed capacity.  ReservationID
// is a weak back-reference to the current occupant: it is non-nil exactly
// while the table is occupied, and the referenced reservation is seated.
//
// Fields:
//  ID            – primary key identifier.
//  TableName     – display name, at least two characters.
//  Capacity      – maximum party size.
//  ReservationID – current occupant (nil when free).
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type Table struct {
    ID            uint64    `json:"table_id"`       // tables.table_id
    TableName     string    `json:"table_name"`     // tables.table_name
    Capacity      int       `json:"capacity"`       // tables.capacity
    ReservationID *uint64   `json:"reservation_id"` // tables.reservation_id (nullable)
    CreatedAt     time.Time `json:"created_at"`     // tables.created_at
    UpdatedAt     time.Time `json:"updated_at"`     // tables.updated_at
}

// Occupied reports whether a reservation is currently seated at the table.
func (t Table) Occupied() bool { return t.ReservationID != nil }
