package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/dialogue-engine/internal/storage"
	"github.com/jwebster45206/dialogue-engine/pkg/playback"
	"github.com/jwebster45206/dialogue-engine/pkg/profile"
)

type ErrorHandlingMode string

const ErrorHandlingExit ErrorHandlingMode = "exit"
const ErrorHandlingContinue ErrorHandlingMode = "continue"

// Runner plays scripted test suites against dialogue content
type Runner struct {
	CasesDir          string // Dialogue paths in suites are relative to this directory
	TickInterval      time.Duration
	TextSpeed         float64 // Base reveal rate in characters per second
	MaxTicks          int // Per step, before playback is considered stuck
	Logger            func(format string, args ...interface{})
	ErrorHandlingMode ErrorHandlingMode
	SlogLogger        *slog.Logger
}

// NewRunner creates a new test runner
func NewRunner(casesDir string) *Runner {
	return &Runner{
		CasesDir:          casesDir,
		TickInterval:      16 * time.Millisecond,
		TextSpeed:         playback.DefaultTextSpeed,
		MaxTicks:          100000,
		Logger:            func(string, ...interface{}) {},
		ErrorHandlingMode: ErrorHandlingContinue,
		SlogLogger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// LoadTestSuite loads a test suite from a JSON file
func LoadTestSuite(filename string) (TestSuite, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return TestSuite{}, fmt.Errorf("failed to read test file %s: %w", filename, err)
	}

	var suite TestSuite
	if err := json.Unmarshal(content, &suite); err != nil {
		return TestSuite{}, fmt.Errorf("failed to parse JSON in %s: %w", filename, err)
	}

	return suite, nil
}

// LoadTestSuiteWithExpansion loads a test suite and expands it if it's a sequence
// Returns a slice of TestJobs (one for regular tests, multiple for sequences)
func LoadTestSuiteWithExpansion(filename string, casesDir string) ([]TestJob, error) {
	suite, err := LoadTestSuite(filename)
	if err != nil {
		return nil, err
	}

	if !suite.IsSequence() {
		return []TestJob{{
			Name:     suite.Name,
			Suite:    suite,
			CaseFile: filename,
		}}, nil
	}

	var jobs []TestJob
	for _, caseFile := range suite.Cases {
		casePath := filepath.Join(casesDir, caseFile)

		// Recursively load (in case a sequence references another sequence)
		subJobs, err := LoadTestSuiteWithExpansion(casePath, casesDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load case '%s' referenced by sequence '%s': %w", caseFile, suite.Name, err)
		}

		jobs = append(jobs, subJobs...)
	}

	return jobs, nil
}

// RunSuite executes a complete test suite
func (r *Runner) RunSuite(ctx context.Context, suite TestSuite) (TestRunResult, error) {
	start := time.Now()
	result := TestRunResult{
		Job: TestJob{
			Name:  suite.Name,
			Suite: suite,
		},
		Results: make([]TestResult, 0, len(suite.Steps)),
	}

	prof := suite.SeedProfile.Clone()
	if prof.ID == uuid.Nil {
		prof.ID = uuid.New()
	}
	result.Profile = prof.ID

	p, err := r.newPlaythrough(ctx, suite, prof)
	if err != nil {
		result.Error = fmt.Errorf("failed to load dialogue: %w", err)
		result.Duration = time.Since(start)
		return result, result.Error
	}

	if suite.Conversation != "" {
		p.lastErr = p.runtime.StartConversationID(suite.Conversation)
	} else {
		p.lastErr = p.runtime.StartConversation()
	}
	if err := p.settle(); err != nil {
		result.Error = err
		result.Duration = time.Since(start)
		return result, result.Error
	}

	for i, step := range suite.Steps {
		if err := ctx.Err(); err != nil {
			result.Error = err
			break
		}

		r.Logger("    [%d/%d] Running step: %s", i+1, len(suite.Steps), step.Name)
		stepResult := r.runStep(p, step)
		stepResult.TestName = suite.Name
		result.Results = append(result.Results, stepResult)

		if stepResult.Error != nil {
			r.Logger("    [%d/%d] ✗ %s: %v", i+1, len(suite.Steps), step.Name, stepResult.Error)
			if result.Error == nil {
				result.Error = fmt.Errorf("step %d (%s) failed: %w", i, step.Name, stepResult.Error)
			}
			if r.ErrorHandlingMode == ErrorHandlingExit {
				break
			}
			continue
		}

		r.Logger("    [%d/%d] ✓ %s (%v)", i+1, len(suite.Steps), step.Name, stepResult.Duration)
	}

	result.Duration = time.Since(start)
	return result, result.Error
}

func (r *Runner) runStep(p *playthrough, step TestStep) TestResult {
	start := time.Now()
	result := TestResult{StepName: step.Name}

	if step.Action != "" {
		p.sink.notifications = nil
	}

	switch step.Action {
	case "":
	case ActionAdvance:
		p.lastErr = p.runtime.SignalAdvance()
	case ActionChoose:
		offered := p.runtime.OfferedChoices()
		if step.Choice < 1 || step.Choice > len(offered) {
			result.Error = fmt.Errorf("choice %d not offered (%d choices)", step.Choice, len(offered))
			result.Duration = time.Since(start)
			return result
		}
		p.lastErr = p.runtime.SignalChoice(offered[step.Choice-1].LinkIndex)
	case ActionRestart:
		p.lastErr = p.runtime.StartConversation()
	case ActionStart:
		p.lastErr = p.runtime.StartConversationID(step.Conversation)
	default:
		result.Error = fmt.Errorf("unknown action %q", step.Action)
		result.Duration = time.Since(start)
		return result
	}

	if err := p.settle(); err != nil {
		result.Error = err
		result.Duration = time.Since(start)
		return result
	}

	result.Text = p.sink.text.String()
	if err := r.checkExpectations(step.Expectations, p); err != nil {
		result.Error = err
	} else {
		result.Success = true
	}

	result.Duration = time.Since(start)
	return result
}

// checkExpectations validates the step expectations against the playthrough
func (r *Runner) checkExpectations(exp Expectations, p *playthrough) error {
	var errs []error
	rt := p.runtime

	if exp.State != nil && rt.State().String() != *exp.State {
		errs = append(errs, fmt.Errorf("expected state '%s', got '%s'", *exp.State, rt.State()))
	}

	if exp.Conversation != nil {
		got := ""
		if c := rt.Conversation(); c != nil {
			got = c.ID
		}
		if got != *exp.Conversation {
			errs = append(errs, fmt.Errorf("expected conversation '%s', got '%s'", *exp.Conversation, got))
		}
	}

	if exp.Frame != nil {
		got := ""
		if f := rt.Frame(); f != nil {
			got = f.ID
		}
		if got != *exp.Frame {
			errs = append(errs, fmt.Errorf("expected frame '%s', got '%s'", *exp.Frame, got))
		}
	}

	text := strings.Join(strings.Fields(p.sink.text.String()), " ")
	for _, want := range exp.TextContains {
		if !strings.Contains(text, want) {
			errs = append(errs, fmt.Errorf("expected text to contain '%s', got '%s'", want, text))
		}
	}
	for _, unwanted := range exp.TextNotContains {
		if strings.Contains(text, unwanted) {
			errs = append(errs, fmt.Errorf("expected text not to contain '%s', got '%s'", unwanted, text))
		}
	}

	if exp.Choices != nil {
		var labels []string
		for _, c := range rt.OfferedChoices() {
			labels = append(labels, c.Label)
		}
		if !slices.Equal(labels, exp.Choices) {
			errs = append(errs, fmt.Errorf("expected choices %q, got %q", exp.Choices, labels))
		}
	}

	if exp.Notifications != nil && !slices.Equal(p.sink.notifications, exp.Notifications) {
		errs = append(errs, fmt.Errorf("expected notifications %v, got %v", exp.Notifications, p.sink.notifications))
	}

	for _, id := range exp.ChoicesMade {
		if !p.profile.ChoiceMade(id) {
			errs = append(errs, fmt.Errorf("expected choice '%s' to be saved", id))
		}
	}
	for _, id := range exp.ConversationsSeen {
		if !p.profile.ConversationSeen(id) {
			errs = append(errs, fmt.Errorf("expected conversation '%s' to be seen", id))
		}
	}

	if exp.Error != nil && (p.lastErr != nil) != *exp.Error {
		errs = append(errs, fmt.Errorf("expected error %t, got %v", *exp.Error, p.lastErr))
	}

	return errors.Join(errs...)
}

func (r *Runner) newPlaythrough(ctx context.Context, suite TestSuite, prof *profile.Profile) (*playthrough, error) {
	paths := make([]string, len(suite.Dialogue))
	for i, path := range suite.Dialogue {
		if !filepath.IsAbs(path) {
			path = filepath.Join(r.CasesDir, path)
		}
		paths[i] = path
	}

	reg, _, err := storage.LoadRegistry(ctx, storage.NewFileSource(r.SlogLogger, paths...), r.SlogLogger)
	if err != nil {
		return nil, err
	}

	sink := &recordingSink{}
	rt := playback.New(reg, sink, prof,
		playback.WithLogger(r.SlogLogger),
		playback.WithTextSpeed(r.TextSpeed),
		playback.WithObserver(sink))

	return &playthrough{
		runtime:  rt,
		sink:     sink,
		profile:  prof,
		interval: r.TickInterval,
		maxTicks: r.MaxTicks,
	}, nil
}
