package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/vasilis-tsatalis/basic-crud-operations/internals/apierr"
)

const (
	RequestIDHeader = "X-Request-ID"
	RequestIDKey    = "request_id"
)

// RequestID keeps the caller's X-Request-ID or generates a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start),
			"request_id", c.GetString(RequestIDKey),
		}

		switch {
		case status >= http.StatusInternalServerError:
			slog.Error("Request handled", attrs...)
		case status >= http.StatusBadRequest:
			slog.Warn("Request handled", attrs...)
		default:
			slog.Info("Request handled", attrs...)
		}
	}
}

// ConnProvider hands out a dedicated connection from the pool.
type ConnProvider interface {
	Conn(ctx context.Context) (*sqlx.Conn, error)
}

// DBSession reserves one connection for the lifetime of the request and
// returns it to the pool once the handler chain is done, whatever the outcome.
func DBSession(provider ConnProvider, bind func(context.Context, *sqlx.Conn) context.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := provider.Conn(c.Request.Context())
		if err != nil {
			slog.Error("Failed to acquire DB connection", "err", err)
			apierr.Write(c, http.StatusServiceUnavailable, apierr.CodeUnavailable, "database unavailable")
			return
		}
		defer func() {
			if err := conn.Close(); err != nil {
				slog.Warn("Failed to release DB connection", "err", err)
			}
		}()

		c.Request = c.Request.WithContext(bind(c.Request.Context(), conn))
		c.Next()
	}
}
