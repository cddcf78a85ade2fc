package ports

import (
	"context"

	"github.com/layer-3/attendease/core"
)

// EventPublisher publishes attendance events to other instances and consumers
type EventPublisher interface {
	PublishTokenIssued(ctx context.Context, token core.Token) error
	PublishCheckIn(ctx context.Context, record core.AttendanceRecord) error
}
