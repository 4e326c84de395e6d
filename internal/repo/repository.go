package repo

import (
	"context"
	"time"

	"github.com/nutrilabel/auth-service/internal/domain"
)

// UserRepository is the storage surface of the auth flows. Lookups
// return (nil, nil) when no row matches; mutations return domain errors
// for the business outcomes the schema can detect.
type UserRepository interface {
	// CreateUser inserts the user and fills in ID and CreatedAt.
	// Returns domain.ErrDuplicateUser on a username/google_id collision.
	CreateUser(ctx context.Context, u *domain.User) error

	FindByUsername(ctx context.Context, username string) (*domain.User, error)

	// FindByGoogle matches username == email OR google_id == googleID.
	FindByGoogle(ctx context.Context, email, googleID string) (*domain.User, error)

	// SetResetToken stores token+expiry on the row for username.
	// Returns domain.ErrEmailNotFound when no such user exists.
	SetResetToken(ctx context.Context, username, token string, expiry time.Time) error

	// RedeemResetToken atomically swaps in the new password hash and
	// clears the token, but only if the token is still outstanding and
	// unexpired. One statement, so a token can be redeemed exactly once.
	// Returns domain.ErrInvalidOrExpiredToken when nothing matched.
	RedeemResetToken(ctx context.Context, token, newHash string) (*domain.User, error)

	Ping(ctx context.Context) error
	Close() error
}
