// Package users stores registered accounts.
package users

import (
	"context"

	"github.com/truthmate/truthmate/internal/server/models"
)

// Repository persists users. Emails are stored exactly as given; callers
// normalise them first.
//
// Create and Update return common.ErrorConflict when the email is taken.
// Lookups return common.ErrorNotFound for unknown users.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	Update(ctx context.Context, user *models.User) (*models.User, error)
}
