package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/jwebster45206/dialogue-engine/internal/config"
	"github.com/jwebster45206/dialogue-engine/internal/events"
	"github.com/jwebster45206/dialogue-engine/internal/logger"
	"github.com/jwebster45206/dialogue-engine/internal/storage"
	"github.com/jwebster45206/dialogue-engine/pkg/playback"
	"github.com/jwebster45206/dialogue-engine/pkg/profile"
)

const logFileName = "dialogue-console.log"

func main() {
	// Load .env file if present
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// The terminal belongs to the UI, so logs go to a file
	logPath := filepath.Join(os.TempDir(), logFileName)
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	log := logger.Setup(cfg, logFile)

	ctx := context.Background()

	store, redisStore, err := openStorage(ctx, cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to Redis: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	prof, err := loadProfile(ctx, store, cfg.ProfileID, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load profile: %v\n", err)
		os.Exit(1)
	}
	log = logger.WithProfile(log, prof.ID)

	var src storage.DialogueSource
	switch {
	case len(os.Args) > 1:
		src = storage.NewFileSource(log, os.Args[1:]...)
	case redisStore != nil:
		src = redisStore
	default:
		src = storage.NewFileSource(log, filepath.Join(cfg.DataDir, "dialogue"))
	}

	reg, reports, err := storage.LoadRegistry(ctx, src, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load dialogue: %v\n", err)
		os.Exit(1)
	}
	for _, r := range reports {
		if err := r.Err(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}
	if reg.Len() == 0 {
		fmt.Fprintf(os.Stderr, "No conversations found. Pass dialogue files or set DIALOGUE_DATA_DIR.\n")
		os.Exit(1)
	}

	sink := newConsoleSink()
	opts := []playback.Option{
		playback.WithLogger(log),
		playback.WithTextSpeed(cfg.TextSpeed),
		playback.WithCharsPerLine(cfg.CharsPerLine),
		playback.WithChoicePopInDelay(cfg.ChoicePopInDelay),
		playback.WithChoiceDestroyDelay(cfg.ChoiceDestroyDelay),
		playback.WithObserver(sink),
	}
	if redisStore != nil {
		broadcaster := events.NewBroadcaster(redisStore.Client(), log)
		opts = append(opts, playback.WithObserver(broadcaster.Observer(ctx, prof.ID)))
	}
	rt := playback.New(reg, sink, prof, opts...)

	p := tea.NewProgram(NewConsoleUI(rt, sink, prof, store, log, cfg.TickInterval), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}

	if err := store.SaveProfile(ctx, prof); err != nil {
		logger.WithError(log, err).Error("Failed to save profile on exit")
		fmt.Fprintf(os.Stderr, "Failed to save profile: %v\n", err)
		os.Exit(1)
	}
	if redisStore == nil {
		fmt.Printf("Progress is kept in memory only. Set REDIS_URL and DIALOGUE_PROFILE_ID=%s to keep it.\n", prof.ID)
	} else {
		fmt.Printf("Profile %s saved.\n", prof.ID)
	}
}

// openStorage connects to Redis when REDIS_URL is set and otherwise keeps
// profiles in memory. The Redis store is also returned on its own, or nil.
func openStorage(ctx context.Context, cfg *config.Config, log *slog.Logger) (storage.Storage, *storage.RedisStorage, error) {
	if cfg.RedisURL == "" {
		log.Info("REDIS_URL not set, keeping profiles in memory")
		return storage.NewMockStorage(), nil, nil
	}

	rs, err := storage.NewRedisStorage(cfg.RedisURL, cfg.DataDir, log)
	if err != nil {
		return nil, nil, err
	}
	if err := rs.WaitForConnection(ctx, 5, time.Second); err != nil {
		rs.Close()
		return nil, nil, err
	}
	return rs, rs, nil
}

// loadProfile loads the configured profile, creating it if it does not
// exist. Without a configured ID a fresh profile is created.
func loadProfile(ctx context.Context, store storage.Storage, id uuid.UUID, log *slog.Logger) (*profile.Profile, error) {
	if id == uuid.Nil {
		p := profile.New()
		log.Info("Created new profile", "profile_id", p.ID)
		return p, nil
	}

	p, err := store.LoadProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		p = profile.New()
		p.ID = id
		log.Info("Created new profile", "profile_id", p.ID)
		return p, nil
	}

	log.Info("Loaded profile", "profile_id", p.ID, "seen_conversations", len(p.SeenConversations))
	return p, nil
}
