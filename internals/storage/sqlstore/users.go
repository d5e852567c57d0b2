package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/vasilis-tsatalis/basic-crud-operations/internals/storage"
	"github.com/vasilis-tsatalis/basic-crud-operations/internals/storage/models"
	"golang.org/x/crypto/bcrypt"
)

var userColumns = []string{"id", "email", "hashed_password", "is_active"}

type UserStorage struct {
	*Store
}

func (s *UserStorage) GetUser(ctx context.Context, userID int64) (models.User, error) {
	slog.Debug("Getting user in DB", "userID", userID)

	var user models.User
	err := s.observe(ctx, "get_user", func(ctx context.Context) error {
		return s.getUserWhere(ctx, &user, sq.Eq{"id": userID})
	})
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (s *UserStorage) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	slog.Debug("Getting user by email in DB", "email", email)

	var user models.User
	err := s.observe(ctx, "get_user_by_email", func(ctx context.Context) error {
		return s.getUserWhere(ctx, &user, sq.Eq{"email": email})
	})
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (s *UserStorage) getUserWhere(ctx context.Context, user *models.User, pred sq.Eq) error {
	q := s.builder().Select(userColumns...).From("users").Where(pred)
	if err := s.get(ctx, user, q); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	items, err := s.itemsByOwners(ctx, []int64{user.ID})
	if err != nil {
		return err
	}
	user.Items = ownedItems(items, user.ID)
	return nil
}

func (s *UserStorage) GetUsers(ctx context.Context, skip, limit uint64) ([]models.User, error) {
	slog.Debug("Listing users in DB", "skip", skip, "limit", limit)

	users := []models.User{}
	err := s.observe(ctx, "get_users", func(ctx context.Context) error {
		q := s.builder().Select(userColumns...).From("users").
			OrderBy("id").
			Limit(limit).
			Offset(skip)
		if err := s.selectAll(ctx, &users, q); err != nil {
			return fmt.Errorf("failed to list users: %w", err)
		}
		if len(users) == 0 {
			return nil
		}

		ids := make([]int64, len(users))
		for i := range users {
			ids[i] = users[i].ID
		}
		items, err := s.itemsByOwners(ctx, ids)
		if err != nil {
			return err
		}
		for i := range users {
			users[i].Items = ownedItems(items, users[i].ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

// CreateUser relies on the unique index on users.email; a violation is
// reported as storage.ErrEmailExists.
func (s *UserStorage) CreateUser(ctx context.Context, user models.UserCreate) (models.User, error) {
	slog.Debug("Creating user in DB", "email", user.EmailValue())

	var created models.User
	err := s.observe(ctx, "create_user", func(ctx context.Context) error {
		hash, err := bcrypt.GenerateFromPassword([]byte(user.PasswordValue()), s.hashCost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}

		q := s.builder().Insert("users").
			Columns("email", "hashed_password", "is_active").
			Values(user.EmailValue(), string(hash), true)

		id, err := s.insertReturningID(ctx, q)
		if err != nil {
			if s.dialect.IsUniqueViolation(err) {
				return storage.ErrEmailExists
			}
			return fmt.Errorf("failed to create user: %w", err)
		}

		created = models.User{
			ID:             id,
			Email:          user.EmailValue(),
			HashedPassword: string(hash),
			IsActive:       true,
			Items:          []models.Item{},
		}
		return nil
	})
	if err != nil {
		return models.User{}, err
	}
	return created, nil
}
