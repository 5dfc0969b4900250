package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// SubmitInput is the body accepted by the review submission endpoint.
// Unknown fields, including "approved", are ignored.
type SubmitInput struct {
	Title  string          `json:"title"`
	Body   *string         `json:"body"`
	Lat    json.RawMessage `json:"lat"`
	Lon    json.RawMessage `json:"lon"`
	Rating LooseInt        `json:"rating"`
}

// DeleteInput is the body accepted by the admin delete endpoint.
type DeleteInput struct {
	ID LooseID `json:"id"`
}

// LooseInt reads a JSON number or numeric string the way a lenient integer
// parse would: "4" -> 4, 4.7 -> 4, "3 stars" -> 3. Anything without leading
// digits, and null, leave it unset.
type LooseInt struct {
	Value int
	Valid bool
}

func (n *LooseInt) UnmarshalJSON(b []byte) error {
	*n = LooseInt{}
	raw := bytes.TrimSpace(b)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
		return nil
	case raw[0] == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		n.Value, n.Valid = leadingInt(s)
		return nil
	case raw[0] == '-' || (raw[0] >= '0' && raw[0] <= '9'):
		f, err := strconv.ParseFloat(string(raw), 64)
		if err != nil {
			return fmt.Errorf("rating: %w", err)
		}
		n.Value, n.Valid = truncate(f), true
		return nil
	}
	// booleans, objects, arrays
	return nil
}

func leadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0, false
	}
	v, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		// too many digits; out of range either way
		if s[0] == '-' {
			return math.MinInt32, true
		}
		return math.MaxInt32, true
	}
	return clamp(v), true
}

func truncate(f float64) int {
	if math.IsNaN(f) {
		return 0
	}
	return clamp(int64(math.Max(math.Min(math.Trunc(f), math.MaxInt32), math.MinInt32)))
}

func clamp(v int64) int {
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	if v < math.MinInt32 {
		return math.MinInt32
	}
	return int(v)
}

// LooseID accepts a review id sent either as a string or as a number.
// Empty strings and zero leave it empty.
type LooseID string

func (id *LooseID) UnmarshalJSON(b []byte) error {
	*id = ""
	raw := bytes.TrimSpace(b)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		*id = LooseID(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(raw, &num); err != nil {
		return fmt.Errorf("id must be a string or a number")
	}
	if f, err := num.Float64(); err == nil && f == 0 {
		return nil
	}
	*id = LooseID(num.String())
	return nil
}

// nullIfFalsy keeps a pass-through coordinate unless it is absent, null,
// false, zero or the empty string.
func nullIfFalsy(raw json.RawMessage) json.RawMessage {
	v := bytes.TrimSpace(raw)
	if len(v) == 0 {
		return nil
	}
	switch string(v) {
	case "null", "false", `""`:
		return nil
	}
	if f, err := strconv.ParseFloat(string(v), 64); err == nil && f == 0 {
		return nil
	}
	return v
}
