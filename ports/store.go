package ports

import (
	"context"
	"time"

	"github.com/layer-3/attendease/core"
)

// ActiveTokenStore keeps the latest issued token per course
type ActiveTokenStore interface {
	Put(ctx context.Context, token core.Token, ttl time.Duration) error
	// Get returns nil when no token is active for the course
	Get(ctx context.Context, courseID string) (*core.Token, error)
	Delete(ctx context.Context, courseID string) error
	Clear(ctx context.Context) error
}
