package repository

import (
	"context"
	"time"

	"github.com/tressa/tressa/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

// TressRepository is the persistence contract for tresses.
//
// Read methods treat expired rows (expires_at non-null and <= now) as
// absent; GetByIDIncludingExpired is the one exception, used by the delete
// path so an owner can remove an expired-but-still-present tress.
type TressRepository interface {
	Create(ctx context.Context, tress *model.Tress) error
	GetByID(ctx context.Context, id string) (*model.Tress, error)
	GetByIDIncludingExpired(ctx context.Context, id string) (*model.Tress, error)
	ListPublic(ctx context.Context, opts ListOptions) ([]model.Tress, error)
	ListOwnedBy(ctx context.Context, ownerID string, opts ListOptions) ([]model.Tress, error)
	CountPublic(ctx context.Context) (int, error)
	CountOwnedBy(ctx context.Context, ownerID string) (int, error)
	Update(ctx context.Context, tress *model.Tress) error
	Delete(ctx context.Context, id string) error

	// DeleteExpired removes every tress with expires_at <= now in one
	// statement and reports how many rows went. Used by the reaper.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)

	// UpsertByGitHubID inserts the user on first OAuth login and refreshes
	// username/email/avatar on subsequent ones, keyed on GitHubID.
	UpsertByGitHubID(ctx context.Context, user *model.User) error
}
