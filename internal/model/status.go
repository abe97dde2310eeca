package model

// Status is the lifecycle state of a reservation.
type Status string

const (
    StatusBooked    Status = "booked"
    StatusSeated    Status = "seated"
    StatusFinished  Status = "finished"
    StatusCancelled Status = "cancelled"
)

// Trigger names the operation that is allowed to move a reservation along
// an edge of the state machine.
type Trigger string

const (
    TriggerSeat         Trigger = "seat"
    TriggerClear        Trigger = "clear"
    TriggerStatusUpdate Trigger = "status_update"
)

// transitions lists every legal edge.  Anything missing is rejected, so a
// reservation can never return to booked and finished/cancelled absorb.
var transitions = map[Status]map[Status]Trigger{
    StatusBooked: {
        StatusSeated:    TriggerSeat,
        StatusCancelled: TriggerStatusUpdate,
    },
    StatusSeated: {
        StatusFinished: TriggerClear,
    },
}

// ParseStatus returns the Status named by s and whether it is known.
func ParseStatus(s string) (Status, bool) {
    switch st := Status(s); st {
    case StatusBooked, StatusSeated, StatusFinished, StatusCancelled:
        return st, true
    }
    return "", false
}

// Valid reports whether s is one of the four known states.
func (s Status) Valid() bool {
    _, ok := ParseStatus(string(s))
    return ok
}

// Terminal reports whether no edge leaves s.
func (s Status) Terminal() bool { return len(transitions[s]) == 0 }

// CanTransition reports whether the edge from -> to exists and is driven by
// the given trigger.
func CanTransition(from, to Status, by Trigger) bool {
    t, ok := transitions[from][to]
    return ok && t == by
}

// TriggerFor returns the trigger that owns the edge from -> to.
func TriggerFor(from, to Status) (Trigger, bool) {
    t, ok := transitions[from][to]
    return t, ok
}
