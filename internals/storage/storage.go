package storage

import (
	"context"
	"errors"

	"github.com/vasilis-tsatalis/basic-crud-operations/internals/storage/models"
)

var (
	ErrNotFound    = errors.New("NOT_FOUND")
	ErrEmailExists = errors.New("EMAIL_EXISTS")
)

type UserStorage interface {
	GetUser(ctx context.Context, userID int64) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	GetUsers(ctx context.Context, skip, limit uint64) ([]models.User, error)
	CreateUser(ctx context.Context, user models.UserCreate) (models.User, error)
}

type ItemStorage interface {
	CreateUserItem(ctx context.Context, item models.ItemCreate, userID int64) (models.Item, error)
	GetItems(ctx context.Context, skip, limit uint64) ([]models.Item, error)
}
