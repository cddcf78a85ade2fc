package ports

import (
	"context"

	"github.com/layer-3/attendease/core"
)

// IdentityResolver turns a bearer credential into the caller's identity
type IdentityResolver interface {
	Resolve(ctx context.Context, bearer string) (*core.Identity, error)
}
