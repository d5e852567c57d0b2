package sqlstore

import (
	"context"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/vasilis-tsatalis/basic-crud-operations/internals/storage"
	"github.com/vasilis-tsatalis/basic-crud-operations/internals/storage/models"
)

var itemColumns = []string{"id", "title", "description", "owner_id"}

type ItemStorage struct {
	*Store
}

// CreateUserItem reports a missing owner as storage.ErrNotFound via the
// items.owner_id foreign key.
func (s *ItemStorage) CreateUserItem(ctx context.Context, item models.ItemCreate, userID int64) (models.Item, error) {
	slog.Debug("Creating item in DB", "userID", userID, "title", item.TitleValue())

	var created models.Item
	err := s.observe(ctx, "create_user_item", func(ctx context.Context) error {
		q := s.builder().Insert("items").
			Columns("title", "description", "owner_id").
			Values(item.TitleValue(), item.Description, userID)

		id, err := s.insertReturningID(ctx, q)
		if err != nil {
			if s.dialect.IsForeignKeyViolation(err) {
				return storage.ErrNotFound
			}
			return fmt.Errorf("failed to create item: %w", err)
		}

		created = models.Item{
			ID:          id,
			Title:       item.TitleValue(),
			Description: item.Description,
			OwnerID:     userID,
		}
		return nil
	})
	if err != nil {
		return models.Item{}, err
	}
	return created, nil
}

func (s *ItemStorage) GetItems(ctx context.Context, skip, limit uint64) ([]models.Item, error) {
	slog.Debug("Listing items in DB", "skip", skip, "limit", limit)

	items := []models.Item{}
	err := s.observe(ctx, "get_items", func(ctx context.Context) error {
		q := s.builder().Select(itemColumns...).From("items").
			OrderBy("id").
			Limit(limit).
			Offset(skip)
		if err := s.selectAll(ctx, &items, q); err != nil {
			return fmt.Errorf("failed to list items: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// itemsByOwners loads the items of every owner in one query, grouped by owner id.
func (s *Store) itemsByOwners(ctx context.Context, ownerIDs []int64) (map[int64][]models.Item, error) {
	var items []models.Item
	q := s.builder().Select(itemColumns...).From("items").
		Where(sq.Eq{"owner_id": ownerIDs}).
		OrderBy("id")
	if err := s.selectAll(ctx, &items, q); err != nil {
		return nil, fmt.Errorf("failed to get owned items: %w", err)
	}

	byOwner := make(map[int64][]models.Item, len(ownerIDs))
	for _, item := range items {
		byOwner[item.OwnerID] = append(byOwner[item.OwnerID], item)
	}
	return byOwner, nil
}

func ownedItems(byOwner map[int64][]models.Item, ownerID int64) []models.Item {
	if items, ok := byOwner[ownerID]; ok {
		return items
	}
	return []models.Item{}
}
