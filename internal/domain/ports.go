package domain

import "context"

type IdentityVerifier interface {
	// VerifyToken returns ErrInvalidToken when the identity service rejects the token.
	VerifyToken(ctx context.Context, token string) (Identity, error)
}

type ReviewStore interface {
	InsertReview(ctx context.Context, r NewReview) ([]Row, error)
	DeleteReview(ctx context.Context, id string) ([]Row, error)
}
