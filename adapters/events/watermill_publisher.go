package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/layer-3/attendease/core"
	"github.com/layer-3/attendease/ports"
)

const (
	// TopicTokenIssued receives an event per issued token
	TopicTokenIssued = "attendease.token_issued"

	// TopicCheckedIn receives an event per recorded presence
	TopicCheckedIn = "attendease.checked_in"
)

// TokenIssuedEvent represents a token issuance. The token itself is not
// published; only presenters display it.
type TokenIssuedEvent struct {
	CourseID string `json:"course_id"`
	IssuedAt int64  `json:"issued_at"`
}

// CheckInEvent represents a recorded presence
type CheckInEvent struct {
	RecordID   string `json:"record_id"`
	CourseID   string `json:"course_id"`
	StudentID  string `json:"student_id"`
	RecordedAt int64  `json:"recorded_at"`
	Status     string `json:"status"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
}

// NewWatermillPublisher creates a new Watermill publisher
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{publisher: publisher}
}

// PublishTokenIssued publishes a token issuance event
func (p *WatermillPublisher) PublishTokenIssued(ctx context.Context, token core.Token) error {
	return p.publish(ctx, TopicTokenIssued, TokenIssuedEvent{
		CourseID: token.CourseID,
		IssuedAt: token.IssuedAtMillis,
	})
}

// PublishCheckIn publishes a check-in event
func (p *WatermillPublisher) PublishCheckIn(ctx context.Context, rec core.AttendanceRecord) error {
	return p.publish(ctx, TopicCheckedIn, CheckInEvent{
		RecordID:   rec.ID,
		CourseID:   rec.CourseID,
		StudentID:  rec.StudentID,
		RecordedAt: rec.RecordedAtMillis,
		Status:     string(rec.Status),
	})
}

func (p *WatermillPublisher) publish(ctx context.Context, topic string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.New().String(), payload)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
