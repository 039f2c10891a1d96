package users

import "context"

type Repo interface {
	// Create inserts a new user, failing with ErrEmailTaken on a duplicate email.
	Create(ctx context.Context, user User) error
	GetByID(ctx context.Context, userID string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	// UpsertByEmail creates the user or refreshes the name of the existing one.
	UpsertByEmail(ctx context.Context, user User) (User, error)
}
