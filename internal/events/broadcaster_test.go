package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jwebster45206/dialogue-engine/pkg/playback"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestBroadcaster(t *testing.T) (*Broadcaster, *redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	b := NewBroadcaster(client, logger)
	b.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return b, client, mr
}

func receive(t *testing.T, sub *redis.PubSub) Event {
	t.Helper()

	msg, err := sub.ReceiveMessage(context.Background())
	require.NoError(t, err)

	var event Event
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &event))
	return event
}

func TestChannel(t *testing.T) {
	id := uuid.MustParse("6f1c2b7a-4d1e-4c3a-9f1b-2a3b4c5d6e7f")
	assert.Equal(t, "dialogue-events:6f1c2b7a-4d1e-4c3a-9f1b-2a3b4c5d6e7f", Channel(id))
}

func TestBroadcaster_PublishNotification(t *testing.T) {
	b, client, _ := setupTestBroadcaster(t)
	ctx := context.Background()
	profileID := uuid.New()

	sub := client.Subscribe(ctx, Channel(profileID))
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	tests := []struct {
		name string
		in   playback.Notification
		data map[string]interface{}
	}{
		{
			name: "frame entered",
			in:   playback.Notification{Type: playback.NotifyFrameEntered, Conversation: "greet", Frame: "F_start"},
		},
		{
			name: "choice taken",
			in:   playback.Notification{Type: playback.NotifyChoiceTaken, Conversation: "greet", Frame: "F_ask", LinkIndex: 2, ChoiceID: "said_yes"},
			data: map[string]interface{}{"link_index": float64(2), "choice_id": "said_yes"},
		},
		{
			name: "playback failed",
			in:   playback.Notification{Type: playback.NotifyPlaybackFailed, Conversation: "greet", Error: "boom"},
			data: map[string]interface{}{"error": "boom"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, b.PublishNotification(ctx, profileID, tt.in))

			event := receive(t, sub)
			assert.Equal(t, tt.in.Type, event.Type)
			assert.Equal(t, profileID.String(), event.ProfileID)
			assert.Equal(t, tt.in.Conversation, event.Conversation)
			assert.Equal(t, tt.in.Frame, event.Frame)
			assert.Equal(t, tt.data, event.Data)
			assert.True(t, event.Timestamp.Equal(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)))
		})
	}
}

func TestBroadcaster_Observer(t *testing.T) {
	b, client, _ := setupTestBroadcaster(t)
	ctx := context.Background()
	profileID := uuid.New()

	sub := client.Subscribe(ctx, Channel(profileID))
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	obs := b.Observer(ctx, profileID)
	obs.Observe(playback.Notification{Type: playback.NotifyConversationEnded, Conversation: "greet", Frame: "F_end"})

	event := receive(t, sub)
	assert.Equal(t, playback.NotifyConversationEnded, event.Type)
	assert.Equal(t, "F_end", event.Frame)
}

func TestBroadcaster_PublishFailure(t *testing.T) {
	b, _, mr := setupTestBroadcaster(t)
	mr.Close()

	err := b.PublishNotification(context.Background(), uuid.New(), playback.Notification{Type: playback.NotifyFrameEntered})
	assert.Error(t, err)

	// The observer swallows the error
	assert.NotPanics(t, func() {
		b.Observer(context.Background(), uuid.New()).Observe(playback.Notification{Type: playback.NotifyFrameEntered})
	})
}
