package engine

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
)

// reservationFields is the closed Reservation schema accepted on create and
// update.  Identity and timestamps are accepted so clients can send back a
// record they read, but they are ignored.
var reservationFields = map[string]struct{}{
	"first_name":       {},
	"last_name":        {},
	"mobile_number":    {},
	"reservation_date": {},
	"reservation_time": {},
	"people":           {},
	"status":           {},
	"created_at":       {},
	"updated_at":       {},
	"reservation_id":   {},
}

var tableFields = map[string]struct{}{
	"table_name":     {},
	"capacity":       {},
	"reservation_id": {},
}

// Number is a decoded numeric field.  Set is false when the field was absent
// or null; Integer is false for fractions and non-numeric values.
type Number struct {
	Set     bool
	Integer bool
	Value   int
}

// ReservationInput is a decoded create/update body.
type ReservationInput struct {
	FirstName       string
	LastName        string
	MobileNumber    string
	ReservationDate string
	ReservationTime string
	People          Number
	Status          string
	StatusSet       bool
	Unknown         []string
}

// TableInput is a decoded table creation body.
type TableInput struct {
	TableName   string
	Capacity    Number
	OccupantSet bool
	Unknown     []string
}

// DecodeReservationInput reads the `data` object of a request.
func DecodeReservationInput(raw []byte) (ReservationInput, error) {
	fields, err := decodeObject(raw)
	if err != nil {
		return ReservationInput{}, err
	}
	var in ReservationInput
	in.Unknown = unknownKeys(fields, reservationFields)
	in.FirstName = text(fields["first_name"])
	in.LastName = text(fields["last_name"])
	in.MobileNumber = text(fields["mobile_number"])
	in.ReservationDate = text(fields["reservation_date"])
	in.ReservationTime = text(fields["reservation_time"])
	in.People = decodeNumber(fields["people"])
	if v, ok := fields["status"]; ok && !isNull(v) {
		in.Status = text(v)
		in.StatusSet = true
	}
	return in, nil
}

// DecodeTableInput reads the `data` object of a table creation request.
func DecodeTableInput(raw []byte) (TableInput, error) {
	fields, err := decodeObject(raw)
	if err != nil {
		return TableInput{}, err
	}
	var in TableInput
	in.Unknown = unknownKeys(fields, tableFields)
	in.TableName = text(fields["table_name"])
	in.Capacity = decodeNumber(fields["capacity"])
	if v, ok := fields["reservation_id"]; ok && !isNull(v) {
		in.OccupantSet = true
	}
	return in, nil
}

func decodeObject(raw []byte) (map[string]json.RawMessage, error) {
	if len(bytes.TrimSpace(raw)) == 0 || isNull(raw) {
		return nil, rejected(ReasonMissingData, "missing data")
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, rejected(ReasonMissingData, "data must be a JSON object")
	}
	return fields, nil
}

func unknownKeys(fields map[string]json.RawMessage, allowed map[string]struct{}) []string {
	var out []string
	for k := range fields {
		if _, ok := allowed[k]; !ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// text returns a JSON string as-is and a JSON number as its literal; any
// other value reads as empty.
func text(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// decodeNumber accepts JSON numbers only; "4" as a string is not an integer.
func decodeNumber(raw json.RawMessage) Number {
	if len(raw) == 0 || isNull(raw) {
		return Number{}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return Number{Set: strings.TrimSpace(s) != ""}
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return Number{Set: true}
	}
	if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
		return Number{Set: true, Integer: i >= math.MinInt32 && i <= math.MaxInt32, Value: int(i)}
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return Number{Set: true}
	}
	return Number{Set: true, Integer: true, Value: int(f)}
}
