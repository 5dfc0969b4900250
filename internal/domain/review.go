package domain

import "encoding/json"

// Row is one review row as returned by the data store.
type Row = map[string]any

// NewReview is the row written on submission. Lat and Lon carry whatever
// the client sent; nil marshals as JSON null.
type NewReview struct {
	UserID   string          `json:"user_id" validate:"required"`
	Title    string          `json:"title" validate:"required"`
	Body     *string         `json:"body"`
	Lat      json.RawMessage `json:"lat"`
	Lon      json.RawMessage `json:"lon"`
	Rating   *int            `json:"rating" validate:"omitempty,min=1,max=5"`
	Approved bool            `json:"approved"`
}

// Identity is the caller recovered from a verified bearer token.
type Identity struct {
	UserID string
}
