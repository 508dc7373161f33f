package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/jwebster45206/dialogue-engine/pkg/profile"
)

// Storage defines a unified interface for all storage operations.
// Profiles persist in Redis; dialogue documents are read from the filesystem.
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Profile operations (Redis-backed)
	SaveProfile(ctx context.Context, p *profile.Profile) error
	LoadProfile(ctx context.Context, id uuid.UUID) (*profile.Profile, error)
	DeleteProfile(ctx context.Context, id uuid.UUID) error

	// Dialogue document operations (filesystem-backed)
	DialogueSource
}

// DialogueSource supplies dialogue documents by name.
type DialogueSource interface {
	ListDialogueFiles(ctx context.Context) ([]string, error)
	ReadDialogueFile(ctx context.Context, name string) ([]byte, error)
}
