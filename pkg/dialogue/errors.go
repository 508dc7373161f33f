package dialogue

import (
	"fmt"
)

// LoadError reports a document or conversation that could not be loaded.
// Conversation is empty when the whole document failed.
type LoadError struct {
	Source       string
	Conversation string
	Err          error
}

func (e *LoadError) Error() string {
	if e.Conversation != "" {
		return fmt.Sprintf("load %s: conversation %q: %v", e.Source, e.Conversation, e.Err)
	}
	return fmt.Sprintf("load %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// MissingReferenceWarning reports a named resource that could not be found.
// Loading continues with the defaults already in effect.
type MissingReferenceWarning struct {
	Source       string
	Conversation string
	Frame        string
	Kind         string // e.g. "speaker"
	ID           string
}

func (w *MissingReferenceWarning) Error() string {
	return fmt.Sprintf("%s: conversation %q frame %q: %s %q not found", w.Source, w.Conversation, w.Frame, w.Kind, w.ID)
}

// GraphIntegrityError reports a conversation graph edge that cannot be followed.
type GraphIntegrityError struct {
	Conversation string
	Frame        string
	Target       string
	Reason       string
}

func (e *GraphIntegrityError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("conversation %q frame %q: %s: %q", e.Conversation, e.Frame, e.Reason, e.Target)
	}
	return fmt.Sprintf("conversation %q frame %q: %s", e.Conversation, e.Frame, e.Reason)
}
