package users

import (
	"context"
	"errors"
)

// Repo persists accounts.
type Repo interface {
	Create(ctx context.Context, user User) error
	GetByID(ctx context.Context, userID string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByGoogleSubject(ctx context.Context, subject string) (User, error)
	Update(ctx context.Context, user User) error
	Delete(ctx context.Context, userID string) error
}

// Exists returns a lookup that reports whether an account is still present.
func Exists(repo Repo) func(ctx context.Context, userID string) (bool, error) {
	return func(ctx context.Context, userID string) (bool, error) {
		_, err := repo.GetByID(ctx, userID)
		switch {
		case errors.Is(err, ErrNotFound):
			return false, nil
		case err != nil:
			return false, err
		}
		return true, nil
	}
}
