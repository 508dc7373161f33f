package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/jwebster45206/dialogue-engine/internal/storage"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <dialogue.json|dialogue.yaml|dir>...\n", os.Args[0])
		os.Exit(1)
	}

	// Problems are printed by the validator, so loader logs are dropped
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	validator := &DialogueValidator{logger: logger}

	err := validator.validate(context.Background(), os.Args[1:])
	validator.print(os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Dialogue files are valid!")
}

type DialogueValidator struct {
	logger   *slog.Logger
	files    int
	errors   []string
	warnings []string
}

// validate loads every document under paths together, as the player would,
// and collects load errors, load warnings and graph problems.
func (v *DialogueValidator) validate(ctx context.Context, paths []string) error {
	v.errors = nil
	v.warnings = nil

	src := storage.NewFileSource(v.logger, paths...)
	names, err := src.ListDialogueFiles(ctx)
	if err != nil {
		return err
	}
	v.files = len(names)
	if v.files == 0 {
		return fmt.Errorf("no dialogue files found in %s", strings.Join(paths, ", "))
	}

	reg, reports, err := storage.LoadRegistry(ctx, src, v.logger)
	if err != nil {
		v.addError(err.Error())
	}

	definedIn := make(map[string]string)
	for _, r := range reports {
		for _, e := range r.Errors {
			v.addError(e.Error())
		}
		for _, w := range r.Warnings {
			v.addWarning(w.Error())
		}
		for _, id := range r.Conversations {
			if first, ok := definedIn[id]; ok && first != r.Source {
				v.addWarning(fmt.Sprintf("conversation %q is defined in %s and %s; the later definition wins", id, first, r.Source))
				continue
			}
			definedIn[id] = r.Source
		}
	}

	if reg != nil {
		for _, e := range reg.Validate() {
			v.addError(e.Error())
		}
	}

	if len(v.errors) > 0 {
		return fmt.Errorf("%d errors in %d files", len(v.errors), v.files)
	}
	return nil
}

func (v *DialogueValidator) print(w io.Writer) {
	fmt.Fprintf(w, "Validated %d files\n", v.files)
	if len(v.warnings) > 0 {
		fmt.Fprintf(w, "Warnings:\n%s\n", strings.Join(v.warnings, "\n"))
	}
	if len(v.errors) > 0 {
		fmt.Fprintf(w, "Errors:\n%s\n", strings.Join(v.errors, "\n"))
	}
}

func (v *DialogueValidator) addError(msg string) {
	v.errors = append(v.errors, "  - "+msg)
}

func (v *DialogueValidator) addWarning(msg string) {
	v.warnings = append(v.warnings, "  - "+msg)
}
