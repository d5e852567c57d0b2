package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vasilis-tsatalis/basic-crud-operations/internals/items"
	"github.com/vasilis-tsatalis/basic-crud-operations/internals/middleware"
	"github.com/vasilis-tsatalis/basic-crud-operations/internals/storage/sqlstore"
	"github.com/vasilis-tsatalis/basic-crud-operations/internals/users"
)

const healthTimeout = 2 * time.Second

// NewRouter wires the users and items services on top of store.
func NewRouter(store *sqlstore.Store) *gin.Engine {
	userStorage := &sqlstore.UserStorage{Store: store}
	itemStorage := &sqlstore.ItemStorage{Store: store}

	userService := users.New(userStorage)
	itemService := items.New(itemStorage, userStorage)

	r := gin.New()
	r.RedirectTrailingSlash = false
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			slog.Error("Health check failed", "err", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/", middleware.DBSession(store, sqlstore.ContextWithConn))

	userService.RegisterRoutes(api)
	itemService.RegisterRoutes(api)

	return r
}
