package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasilis-tsatalis/basic-crud-operations/internals/storage/models"
	"github.com/vasilis-tsatalis/basic-crud-operations/internals/storage/sqlstore"
	"golang.org/x/crypto/bcrypt"
)

func setupServer(t *testing.T) (*gin.Engine, *sqlstore.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	dsn := "file:" + filepath.Join(t.TempDir(), "server.db") + "?_foreign_keys=on"
	store, err := sqlstore.Open(ctx, "sqlite3", dsn, sqlstore.WithHashCost(bcrypt.MinCost))
	require.NoError(t, err)
	require.NoError(t, store.Bootstrap(ctx))
	t.Cleanup(func() { store.Close() })

	return NewRouter(store), store
}

func do(t *testing.T, router *gin.Engine, method, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createUser(t *testing.T, router *gin.Engine, email string) models.User {
	t.Helper()
	w := do(t, router, http.MethodPost, "/users/", map[string]string{"email": email, "password": "secret"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var user models.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
	return user
}

func userCount(t *testing.T, store *sqlstore.Store) int {
	t.Helper()
	var n int
	require.NoError(t, store.DB.Get(&n, "SELECT COUNT(*) FROM users"))
	return n
}

func TestHealth(t *testing.T) {
	router, _ := setupServer(t)

	w := do(t, router, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestCreateUser_AssignsDistinctIDs(t *testing.T) {
	router, _ := setupServer(t)

	a := createUser(t, router, "a@example.com")
	b := createUser(t, router, "b@example.com")

	assert.NotZero(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.True(t, a.IsActive)
}

func TestCreateUser_DuplicateEmailLeavesCountUnchanged(t *testing.T) {
	router, store := setupServer(t)
	createUser(t, router, "a@example.com")

	w := do(t, router, http.MethodPost, "/users/", map[string]string{"email": "a@example.com", "password": "other"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Email already registered")
	assert.Equal(t, 1, userCount(t, store))
}

func TestGetUser_NeverAssignedID(t *testing.T) {
	router, _ := setupServer(t)
	createUser(t, router, "a@example.com")

	w := do(t, router, http.MethodGet, "/users/999", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "User not found")
}

func TestListUsers_InsertionOrder(t *testing.T) {
	router, _ := setupServer(t)
	a := createUser(t, router, "a@example.com")
	b := createUser(t, router, "b@example.com")
	c := createUser(t, router, "c@example.com")

	w := do(t, router, http.MethodGet, "/users/?skip=0&limit=100", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var all []models.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	require.Len(t, all, 3)
	assert.Equal(t, []int64{a.ID, b.ID, c.ID}, []int64{all[0].ID, all[1].ID, all[2].ID})

	w = do(t, router, http.MethodGet, "/users/?skip=0&limit=1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var first []models.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))
	require.Len(t, first, 1)
	assert.Equal(t, a.ID, first[0].ID)
}

func TestCreateItem_UnknownUserIsRejected(t *testing.T) {
	router, store := setupServer(t)

	w := do(t, router, http.MethodPost, "/users/5/items/", map[string]string{"title": "Orphan"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	var n int
	require.NoError(t, store.DB.Get(&n, "SELECT COUNT(*) FROM items"))
	assert.Zero(t, n)
}

func TestItems_ListedWithOwner(t *testing.T) {
	router, _ := setupServer(t)
	owner := createUser(t, router, "a@example.com")

	for _, title := range []string{"First", "Second"} {
		path := fmt.Sprintf("/users/%d/items/", owner.ID)
		w := do(t, router, http.MethodPost, path, map[string]string{"title": title, "description": title + " item"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w := do(t, router, http.MethodGet, "/items/", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var items []models.Item
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	require.Len(t, items, 2)
	assert.Equal(t, "First", items[0].Title)
	assert.Equal(t, "Second", items[1].Title)
	for _, item := range items {
		assert.Equal(t, owner.ID, item.OwnerID)
	}

	w = do(t, router, http.MethodGet, fmt.Sprintf("/users/%d", owner.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var user models.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
	assert.Len(t, user.Items, 2)
	assert.NotContains(t, w.Body.String(), "hashed_password")
}

func TestPresenceOnlyValidation(t *testing.T) {
	router, _ := setupServer(t)

	w := do(t, router, http.MethodPost, "/users/", map[string]string{"email": "plainname", "password": "secret"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var user models.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))

	w = do(t, router, http.MethodPost, fmt.Sprintf("/users/%d/items/", user.ID), map[string]string{"title": ""})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, router, http.MethodPost, "/users/", map[string]string{"email": "long@example.com", "password": strings.Repeat("é", 40)})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_REQUEST")
}

func TestConnectionsReleasedAfterRequests(t *testing.T) {
	router, store := setupServer(t)
	createUser(t, router, "a@example.com")
	do(t, router, http.MethodGet, "/users/404", nil)
	do(t, router, http.MethodPost, "/users/", map[string]string{"email": "bad"})

	assert.Equal(t, 0, store.DB.Stats().InUse)
}
