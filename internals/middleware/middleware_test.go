package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type connKey struct{}

type fakeProvider struct {
	db  *sqlx.DB
	err error
}

func (p *fakeProvider) Conn(ctx context.Context) (*sqlx.Conn, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.db.Connx(ctx)
}

func bindConn(ctx context.Context, conn *sqlx.Conn) context.Context {
	return context.WithValue(ctx, connKey{}, conn)
}

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func TestRequestID_Generated(t *testing.T) {
	r := newEngine()
	r.Use(RequestID())
	var seen string
	r.GET("/", func(c *gin.Context) {
		seen = c.GetString(RequestIDKey)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	id := w.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(id)
	assert.NoError(t, err)
	assert.Equal(t, id, seen)
}

func TestRequestID_Propagated(t *testing.T) {
	r := newEngine()
	r.Use(RequestID(), Logger())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
	assert.Equal(t, http.StatusTeapot, w.Code)
}

func TestDBSession_ReleasesConnection(t *testing.T) {
	db, err := sqlx.Open("sqlite3", "file:"+filepath.Join(t.TempDir(), "mw.db"))
	require.NoError(t, err)
	defer db.Close()

	r := newEngine()
	r.Use(DBSession(&fakeProvider{db: db}, bindConn))
	r.GET("/ok", func(c *gin.Context) {
		conn, _ := c.Request.Context().Value(connKey{}).(*sqlx.Conn)
		require.NotNil(t, conn)
		assert.Equal(t, 1, db.Stats().InUse)
		c.Status(http.StatusOK)
	})
	r.GET("/fail", func(c *gin.Context) {
		c.AbortWithStatus(http.StatusInternalServerError)
	})

	for _, path := range []string{"/ok", "/fail"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, 0, db.Stats().InUse, "connection held after %s", path)
	}
}

func TestDBSession_Unavailable(t *testing.T) {
	r := newEngine()
	r.Use(DBSession(&fakeProvider{err: errors.New("pool closed")}, bindConn))
	called := false
	r.GET("/", func(c *gin.Context) { called = true })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.False(t, called)
}
