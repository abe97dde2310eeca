package model

import "time"

// Reservation is a booking for a future party at the restaurant.  It never
// references the table it is seated at; the link lives on Table.
//
// Fields:
//  ID              – primary key identifier.
//  FirstName       – guest first name.
//  LastName        – guest last name.
//  MobileNumber    – contact number as entered by the guest.
//  ReservationDate – calendar date, YYYY-MM-DD.
//  ReservationTime – time of day, zero-padded HH:MM.
//  People          – party size, at least 1.
//  Status          – lifecycle state (booked, seated, finished, cancelled).
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last update timestamp.
type Reservation struct {
    ID              uint64    `json:"reservation_id"`   // reservations.reservation_id
    FirstName       string    `json:"first_name"`       // reservations.first_name
    LastName        string    `json:"last_name"`        // reservations.last_name
    MobileNumber    string    `json:"mobile_number"`    // reservations.mobile_number
    ReservationDate string    `json:"reservation_date"` // reservations.reservation_date
    ReservationTime string    `json:"reservation_time"` // reservations.reservation_time
    People          int       `json:"people"`           // reservations.people
    Status          Status    `json:"status"`           // reservations.status
    CreatedAt       time.Time `json:"created_at"`       // reservations.created_at
    UpdatedAt       time.Time `json:"updated_at"`       // reservations.updated_at
}

// ReservationPatch carries the editable guest fields of a reservation.  It is
// applied as a whole; status is never part of a patch.
type ReservationPatch struct {
    FirstName       string
    LastName        string
    MobileNumber    string
    ReservationDate string
    ReservationTime string
    People          int
}

// Apply copies the patch onto r.
func (p ReservationPatch) Apply(r *Reservation) {
    r.FirstName = p.FirstName
    r.LastName = p.LastName
    r.MobileNumber = p.MobileNumber
    r.ReservationDate = p.ReservationDate
    r.ReservationTime = p.ReservationTime
    r.People = p.People
}
