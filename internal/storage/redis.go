package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/dialogue-engine/pkg/profile"
	"github.com/redis/go-redis/v9"
)

// RedisStorage implements the Storage interface using Redis for profiles
// and the filesystem for dialogue documents.
type RedisStorage struct {
	client  *redis.Client
	logger  *slog.Logger
	dataDir string
}

// Ensure RedisStorage implements Storage interface
var _ Storage = (*RedisStorage)(nil)

// NewRedisStorage creates a new Redis storage instance. redisURL may be a
// redis:// URL or a bare host:port.
func NewRedisStorage(redisURL string, dataDir string, logger *slog.Logger) (*RedisStorage, error) {
	opts := &redis.Options{Addr: redisURL}
	if strings.Contains(redisURL, "://") {
		parsed, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis URL: %w", err)
		}
		opts = parsed
	}

	if dataDir == "" {
		dataDir = "./data"
	}

	return &RedisStorage{
		client:  redis.NewClient(opts),
		logger:  logger,
		dataDir: dataDir,
	}, nil
}

// Client returns the underlying Redis client, for sharing with the event broadcaster.
func (r *RedisStorage) Client() *redis.Client {
	return r.client
}

// Health and lifecycle methods

func (r *RedisStorage) Ping(ctx context.Context) error {
	cmd := r.client.Ping(ctx)
	if err := cmd.Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisStorage) WaitForConnection(ctx context.Context, maxRetries int, retryDelay time.Duration) error {
	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

// Profile operations (Redis-backed)

func profileKey(id uuid.UUID) string {
	return "profile:" + id.String()
}

// SaveProfile stores a profile without expiry; progress outlives sessions.
func (r *RedisStorage) SaveProfile(ctx context.Context, p *profile.Profile) error {
	if p == nil {
		return errors.New("profile cannot be nil")
	}
	p.UpdatedAt = time.Now()

	data, err := json.Marshal(p)
	if err != nil {
		r.logger.Error("Failed to marshal profile", "uuid", p.ID, "error", err)
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	cmd := r.client.Set(ctx, profileKey(p.ID), string(data), 0)
	if err := cmd.Err(); err != nil {
		r.logger.Error("Failed to save profile", "uuid", p.ID, "error", err)
		return fmt.Errorf("failed to save profile: %w", err)
	}

	r.logger.Debug("Profile saved", "uuid", p.ID)
	return nil
}

// LoadProfile returns nil, nil when no profile exists for id.
func (r *RedisStorage) LoadProfile(ctx context.Context, id uuid.UUID) (*profile.Profile, error) {
	cmd := r.client.Get(ctx, profileKey(id))
	if err := cmd.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			r.logger.Warn("Profile not found", "uuid", id)
			return nil, nil
		}
		r.logger.Error("Failed to load profile", "uuid", id, "error", err)
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	var p profile.Profile
	if err := json.Unmarshal([]byte(cmd.Val()), &p); err != nil {
		r.logger.Error("Failed to unmarshal profile", "uuid", id, "error", err)
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}

	return &p, nil
}

func (r *RedisStorage) DeleteProfile(ctx context.Context, id uuid.UUID) error {
	cmd := r.client.Del(ctx, profileKey(id))
	if err := cmd.Err(); err != nil {
		r.logger.Error("Failed to delete profile", "uuid", id, "error", err)
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	return nil
}
