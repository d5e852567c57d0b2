package mocks

import (
	"context"
	"sync"

	"github.com/vasilis-tsatalis/basic-crud-operations/internals/storage"
	"github.com/vasilis-tsatalis/basic-crud-operations/internals/storage/models"
)

// MockStorage keeps users and items in memory and implements both
// storage.UserStorage and storage.ItemStorage. The *Func fields override
// the default behaviour when set.
type MockStorage struct {
	mu     sync.RWMutex
	Users  []models.User
	Items  []models.Item
	nextID int64

	GetUserFunc        func(ctx context.Context, userID int64) (models.User, error)
	GetUserByEmailFunc func(ctx context.Context, email string) (models.User, error)
	GetUsersFunc       func(ctx context.Context, skip, limit uint64) ([]models.User, error)
	CreateUserFunc     func(ctx context.Context, user models.UserCreate) (models.User, error)
	CreateUserItemFunc func(ctx context.Context, item models.ItemCreate, userID int64) (models.Item, error)
	GetItemsFunc       func(ctx context.Context, skip, limit uint64) ([]models.Item, error)

	CreateUserCalls     int
	CreateUserItemCalls int
}

func NewMockStorage() *MockStorage {
	return &MockStorage{
		Users: []models.User{},
		Items: []models.Item{},
	}
}

// AddUser seeds a user and returns it with an assigned id.
func (m *MockStorage) AddUser(email string) models.User {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	user := models.User{ID: m.nextID, Email: email, IsActive: true}
	m.Users = append(m.Users, user)
	return m.withItems(user)
}

func (m *MockStorage) GetUser(ctx context.Context, userID int64) (models.User, error) {
	if m.GetUserFunc != nil {
		return m.GetUserFunc(ctx, userID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.Users {
		if u.ID == userID {
			return m.withItems(u), nil
		}
	}
	return models.User{}, storage.ErrNotFound
}

func (m *MockStorage) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	if m.GetUserByEmailFunc != nil {
		return m.GetUserByEmailFunc(ctx, email)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.Users {
		if u.Email == email {
			return m.withItems(u), nil
		}
	}
	return models.User{}, storage.ErrNotFound
}

func (m *MockStorage) GetUsers(ctx context.Context, skip, limit uint64) ([]models.User, error) {
	if m.GetUsersFunc != nil {
		return m.GetUsersFunc(ctx, skip, limit)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := []models.User{}
	for _, u := range page(m.Users, skip, limit) {
		users = append(users, m.withItems(u))
	}
	return users, nil
}

func (m *MockStorage) CreateUser(ctx context.Context, user models.UserCreate) (models.User, error) {
	m.mu.Lock()
	m.CreateUserCalls++
	m.mu.Unlock()

	if m.CreateUserFunc != nil {
		return m.CreateUserFunc(ctx, user)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.Users {
		if u.Email == user.EmailValue() {
			return models.User{}, storage.ErrEmailExists
		}
	}

	m.nextID++
	created := models.User{
		ID:             m.nextID,
		Email:          user.EmailValue(),
		HashedPassword: user.PasswordValue() + "notreallyhashed",
		IsActive:       true,
	}
	m.Users = append(m.Users, created)
	return m.withItems(created), nil
}

func (m *MockStorage) CreateUserItem(ctx context.Context, item models.ItemCreate, userID int64) (models.Item, error) {
	m.mu.Lock()
	m.CreateUserItemCalls++
	m.mu.Unlock()

	if m.CreateUserItemFunc != nil {
		return m.CreateUserItemFunc(ctx, item, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	found := false
	for _, u := range m.Users {
		if u.ID == userID {
			found = true
			break
		}
	}
	if !found {
		return models.Item{}, storage.ErrNotFound
	}

	created := models.Item{
		ID:          int64(len(m.Items) + 1),
		Title:       item.TitleValue(),
		Description: item.Description,
		OwnerID:     userID,
	}
	m.Items = append(m.Items, created)
	return created, nil
}

func (m *MockStorage) GetItems(ctx context.Context, skip, limit uint64) ([]models.Item, error) {
	if m.GetItemsFunc != nil {
		return m.GetItemsFunc(ctx, skip, limit)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]models.Item{}, page(m.Items, skip, limit)...), nil
}

func (m *MockStorage) withItems(u models.User) models.User {
	u.Items = []models.Item{}
	for _, item := range m.Items {
		if item.OwnerID == u.ID {
			u.Items = append(u.Items, item)
		}
	}
	return u
}

func page[T any](rows []T, skip, limit uint64) []T {
	n := uint64(len(rows))
	if skip >= n {
		return nil
	}
	end := skip + limit
	if end > n {
		end = n
	}
	return rows[skip:end]
}
