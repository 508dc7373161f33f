package playback

import "errors"

var (
	// ErrNoConversation is returned when no conversation can be started.
	ErrNoConversation = errors.New("no conversation available")
	// ErrNotPlaying is returned by signals that need an active conversation.
	ErrNotPlaying = errors.New("no conversation is playing")
	// ErrNotAwaitingChoice is returned by SignalChoice outside of a choice prompt.
	ErrNotAwaitingChoice = errors.New("not awaiting a choice")
	// ErrChoiceOutOfRange is returned for a link index the frame does not have.
	ErrChoiceOutOfRange = errors.New("choice index out of range")
	// ErrChoiceNotOffered is returned for a link whose requirements did not pass.
	ErrChoiceNotOffered = errors.New("choice was not offered")
)
