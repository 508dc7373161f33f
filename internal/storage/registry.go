package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jwebster45206/dialogue-engine/pkg/dialogue"
)

// LoadRegistry loads every dialogue document in src into a new registry.
// Unreadable or malformed documents are reported and skipped. An error is
// returned when the documents cannot be listed, or when documents exist but
// none of them yields a conversation.
func LoadRegistry(ctx context.Context, src DialogueSource, logger *slog.Logger) (*dialogue.Registry, []*dialogue.Report, error) {
	names, err := src.ListDialogueFiles(ctx)
	if err != nil {
		return nil, nil, err
	}

	var (
		docs    []dialogue.Document
		reports []*dialogue.Report
	)
	for _, name := range names {
		data, err := src.ReadDialogueFile(ctx, name)
		if err != nil {
			logger.Error("Failed to read dialogue file", "name", name, "error", err)
			reports = append(reports, &dialogue.Report{
				Source: name,
				Errors: []error{&dialogue.LoadError{Source: name, Err: err}},
			})
			continue
		}
		docs = append(docs, dialogue.Document{
			Source: name,
			Data:   data,
			Format: dialogue.FormatFromPath(name),
		})
	}

	loader := dialogue.NewLoader(logger)
	reports = append(reports, loader.LoadBatch(docs)...)

	reg := loader.Registry()
	logger.Info("Dialogue loaded",
		"files", len(names),
		"conversations", reg.Len(),
		"problems", countProblems(reports))

	if reg.Len() == 0 && len(names) > 0 {
		return reg, reports, fmt.Errorf("no conversations loaded from %d dialogue files", len(names))
	}
	return reg, reports, nil
}

func countProblems(reports []*dialogue.Report) int {
	n := 0
	for _, r := range reports {
		n += len(r.Errors) + len(r.Warnings)
	}
	return n
}
