package store

import (
	"context"
	"errors"

	"github.com/statusdeck/statusdeck/internal/models"
)

// Sentinel errors for user store operations
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
)

// UserStore defines the interface for user profile storage operations.
// Profiles are keyed by the identity provider's subject id.
type UserStore interface {
	// Create creates a new user profile.
	// Returns ErrUserAlreadyExists if a profile with the same UID exists.
	Create(ctx context.Context, profile *models.UserProfile) error

	// Get retrieves a user profile by UID.
	// Returns ErrUserNotFound if the profile doesn't exist.
	Get(ctx context.Context, uid string) (*models.UserProfile, error)

	// GetByEmail retrieves a user profile by email address.
	// Returns ErrUserNotFound if no profile has that email.
	GetByEmail(ctx context.Context, email string) (*models.UserProfile, error)

	// GetBatch retrieves the profiles for the given UIDs in a single
	// lookup. UIDs with no profile are skipped, not errors.
	GetBatch(ctx context.Context, uids []string) ([]*models.UserProfile, error)

	// Watch returns a channel that delivers the user profile on subscribe
	// and again after every change, so a tenant transfer propagates to a
	// live session without re-login. The channel is closed when ctx is
	// cancelled or the subscription is lost.
	Watch(ctx context.Context, uid string) (<-chan *models.UserProfile, error)
}
