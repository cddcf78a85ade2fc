package http

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/layer-3/attendease/core"
	"github.com/layer-3/attendease/internal/metrics"
	"github.com/layer-3/attendease/internal/pkg/log"
	"github.com/layer-3/attendease/ports"
)

const (
	headerRequestID = "X-Request-Id"
	identityKey     = "identity"
)

// RequestID reuses the caller's X-Request-Id or generates one
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if id == "" {
			id = uuid.NewString()
			c.Request.Header.Set(headerRequestID, id)
		}
		c.Header(headerRequestID, id)
		c.Next()
	}
}

// Logging puts a request-scoped logger into the request context and logs
// every request once it completes.
func Logging(l *slog.Logger) gin.HandlerFunc {
	if l == nil {
		l = slog.Default()
	}
	return func(c *gin.Context) {
		reqLogger := l
		if rid := c.GetHeader(headerRequestID); rid != "" {
			reqLogger = reqLogger.With(slog.String("request_id", rid))
		}
		ctx := log.Into(c.Request.Context(), reqLogger)
		c.Request = c.Request.WithContext(ctx)

		start := time.Now()
		c.Next()

		log.From(ctx).LogAttrs(ctx, slog.LevelInfo, "http",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("dur", time.Since(start)),
			slog.Int("bytes", c.Writer.Size()),
		)
	}
}

// Instrument records request counts and latency per route
func Instrument(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.Request(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

// AuthMiddleware resolves the bearer credential into the caller's identity
func AuthMiddleware(resolver ports.IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		bearer, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || bearer == "" {
			abort(c, core.ErrUnauthenticated)
			return
		}

		id, err := resolver.Resolve(c.Request.Context(), bearer)
		if err != nil {
			log.From(c.Request.Context()).Debug("auth_rejected", slog.String("err", err.Error()))
			abort(c, core.ErrUnauthenticated)
			return
		}

		c.Set(identityKey, *id)
		c.Request = c.Request.WithContext(log.Into(c.Request.Context(),
			log.From(c.Request.Context()).With(slog.String("user_id", id.UserID))))
		c.Next()
	}
}

// RequireRole lets through identities holding one of roles
func RequireRole(roles ...core.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := identityFrom(c)
		if !ok {
			abort(c, core.ErrUnauthenticated)
			return
		}
		for _, r := range roles {
			if id.Role == r {
				c.Next()
				return
			}
		}
		abort(c, core.ErrForbidden)
	}
}

func identityFrom(c *gin.Context) (core.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return core.Identity{}, false
	}
	id, ok := v.(core.Identity)
	return id, ok
}

func abort(c *gin.Context, err error) {
	status, body := errorResponse(err, "")
	c.AbortWithStatusJSON(status, body)
}
