package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/dialogue-engine/pkg/playback"
	"github.com/redis/go-redis/v9"
)

// Event is a playback notification as published to Redis Pub/Sub.
type Event struct {
	Type         playback.NotificationType `json:"type"`
	ProfileID    string                    `json:"profile_id"`
	Conversation string                    `json:"conversation,omitempty"`
	Frame        string                    `json:"frame,omitempty"`
	Data         map[string]interface{}    `json:"data,omitempty"`
	Timestamp    time.Time                 `json:"timestamp"`
}

// Broadcaster publishes playback events to Redis Pub/Sub so other processes
// can follow a player's progress through dialogue.
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
	now         func() time.Time
}

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
		now:         time.Now,
	}
}

// Channel returns the Pub/Sub channel carrying events for a profile.
func Channel(profileID uuid.UUID) string {
	return fmt.Sprintf("dialogue-events:%s", profileID.String())
}

// PublishNotification publishes one playback notification for a profile.
func (b *Broadcaster) PublishNotification(ctx context.Context, profileID uuid.UUID, n playback.Notification) error {
	event := Event{
		Type:         n.Type,
		ProfileID:    profileID.String(),
		Conversation: n.Conversation,
		Frame:        n.Frame,
		Timestamp:    b.now().UTC(),
	}

	switch n.Type {
	case playback.NotifyChoiceTaken:
		event.Data = map[string]interface{}{
			"link_index": n.LinkIndex,
			"choice_id":  n.ChoiceID,
		}
	case playback.NotifyPlaybackFailed:
		event.Data = map[string]interface{}{
			"error": n.Error,
		}
	}

	return b.publishToProfile(ctx, profileID, event)
}

// Observer returns a playback observer that publishes every notification
// for profileID. Publish failures are logged and otherwise ignored.
func (b *Broadcaster) Observer(ctx context.Context, profileID uuid.UUID) playback.Observer {
	return playback.ObserverFunc(func(n playback.Notification) {
		if err := b.PublishNotification(ctx, profileID, n); err != nil {
			b.logger.Warn("Dropped playback event", "type", n.Type, "profile_id", profileID)
		}
	})
}

// publishToProfile publishes an event to the profile-specific channel
func (b *Broadcaster) publishToProfile(ctx context.Context, profileID uuid.UUID, event Event) error {
	channel := Channel(profileID)

	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "event_type", event.Type)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published",
		"channel", channel,
		"event_type", event.Type,
		"conversation", event.Conversation,
	)

	return nil
}
