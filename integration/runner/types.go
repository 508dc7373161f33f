package runner

import (
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/dialogue-engine/pkg/profile"
)

// Step actions. A step without an action only checks its expectations.
const (
	ActionAdvance = "advance" // Signal advance
	ActionChoose  = "choose"  // Take the Choice-th offered choice, counting from 1
	ActionRestart = "restart" // Start the first eligible conversation
	ActionStart   = "start"   // Start the conversation named by the step
)

// TestSuite defines a scripted playthrough of dialogue content
// Can either be a regular test with Steps, or a suite that references other Cases
type TestSuite struct {
	Name         string          `json:"name"`
	Dialogue     []string        `json:"dialogue,omitempty"`     // Files or directories, relative to the cases directory
	SeedProfile  profile.Profile `json:"seed_profile,omitempty"` // Player state before the first conversation starts
	Conversation string          `json:"conversation,omitempty"` // Started by ID; empty starts the first eligible conversation
	Steps        []TestStep      `json:"steps,omitempty"`        // Used for regular tests
	Cases        []string        `json:"cases,omitempty"`        // Used for suite tests (list of case files)
}

// IsSequence returns true if this is a suite that sequences other cases
func (ts *TestSuite) IsSequence() bool {
	return len(ts.Cases) > 0
}

// TestStep defines a single player input and its expected outcomes.
// Playback is ticked until it waits for input before expectations are checked.
type TestStep struct {
	Name         string       `json:"name,omitempty"`
	Action       string       `json:"action,omitempty"`
	Choice       int          `json:"choice,omitempty"`
	Conversation string       `json:"conversation,omitempty"` // For the start action
	Expectations Expectations `json:"expect"`
}

// Expectations defines what to check after a test step executes
type Expectations struct {
	// Runtime position
	State        *string `json:"state,omitempty"`
	Conversation *string `json:"conversation,omitempty"` // Empty string when no conversation is playing
	Frame        *string `json:"frame,omitempty"`

	// Presentation
	TextContains    []string `json:"text_contains,omitempty"` // Compared with line breaks folded to spaces
	TextNotContains []string `json:"text_not_contains,omitempty"`
	Choices         []string `json:"choices,omitempty"`       // Offered choice labels, in order
	Notifications   []string `json:"notifications,omitempty"` // Notification types raised by the step, in order

	// Profile facts that must hold
	ChoicesMade       []string `json:"choices_made,omitempty"`
	ConversationsSeen []string `json:"conversations_seen,omitempty"`

	// Whether the step's action returned an error
	Error *bool `json:"error,omitempty"`
}

// TestResult contains the outcome of running a test step
type TestResult struct {
	TestName string
	StepName string
	Success  bool
	Error    error
	Duration time.Duration
	Text     string // Text displayed after the step
}

// TestJob represents a test suite to be executed
type TestJob struct {
	Name     string
	Suite    TestSuite
	CaseFile string
}

// TestRunResult contains the results of running an entire test suite
type TestRunResult struct {
	Job      TestJob
	Results  []TestResult
	Error    error
	Duration time.Duration
	Profile  uuid.UUID // ID of the profile used for this test
}
