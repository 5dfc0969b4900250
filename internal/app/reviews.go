package app

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"reviewgate/internal/domain"
)

// Client-facing validation messages.
const (
	MsgInvalidBody   = "Invalid request body"
	MsgTitleRequired = "Title is required"
	MsgInvalidRating = "Invalid rating"
	MsgMissingID     = "Missing review ID"
)

// ValidationError is a rejected request body. Message is safe to show to the caller.
type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(msg string, err error) error { return &ValidationError{Message: msg, Err: err} }

type ReviewService struct {
	store    domain.ReviewStore
	validate *validator.Validate
}

func NewReviewService(s domain.ReviewStore) *ReviewService {
	return &ReviewService{store: s, validate: validator.New()}
}

// Submit validates the input and inserts it as an unapproved review owned by
// the caller. It returns the inserted row, or nil when the store echoed none.
func (s *ReviewService) Submit(ctx context.Context, who domain.Identity, in SubmitInput) (domain.Row, error) {
	r, err := s.buildReview(who, in)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.InsertReview(ctx, r)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (s *ReviewService) buildReview(who domain.Identity, in SubmitInput) (domain.NewReview, error) {
	r := domain.NewReview{
		UserID:   who.UserID,
		Title:    in.Title,
		Body:     in.Body,
		Lat:      nullIfFalsy(in.Lat),
		Lon:      nullIfFalsy(in.Lon),
		Approved: false,
	}
	// a rating of 0 means "no rating"
	if in.Rating.Valid && in.Rating.Value != 0 {
		v := in.Rating.Value
		r.Rating = &v
	}

	if err := s.validate.Struct(r); err != nil {
		var ves validator.ValidationErrors
		if !errors.As(err, &ves) || len(ves) == 0 {
			return r, invalid(MsgInvalidBody, err)
		}
		// Title is checked before Rating, matching field order.
		switch ves[0].Field() {
		case "Title":
			return r, invalid(MsgTitleRequired, err)
		case "Rating":
			return r, invalid(MsgInvalidRating, err)
		case "UserID":
			return r, domain.ErrInvalidToken
		}
		return r, invalid(MsgInvalidBody, err)
	}
	return r, nil
}

// Delete removes one review by id and returns the rows the store reports as deleted.
func (s *ReviewService) Delete(ctx context.Context, in DeleteInput) ([]domain.Row, error) {
	id := strings.TrimSpace(string(in.ID))
	if id == "" {
		return nil, invalid(MsgMissingID, nil)
	}
	rows, err := s.store.DeleteReview(ctx, id)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []domain.Row{}
	}
	return rows, nil
}
