package main

import (
	"strings"

	"github.com/jwebster45206/dialogue-engine/pkg/dialogue"
	"github.com/jwebster45206/dialogue-engine/pkg/playback"
)

type portrait struct {
	visible  bool
	settings dialogue.PortraitSettings
}

type choiceEntry struct {
	label     string
	linkIndex int
	hidden    bool
}

// consoleSink keeps the presentation state the runtime produces so the UI
// can render it. It also records playback notifications for the UI to drain.
type consoleSink struct {
	text       strings.Builder
	transcript strings.Builder
	portraits  [2]portrait
	choices    []choiceEntry
	waiting    bool

	cues      int
	lastPitch float64
	animation string
	effect    string

	notifications []playback.Notification
}

var (
	_ playback.Sink     = (*consoleSink)(nil)
	_ playback.Observer = (*consoleSink)(nil)
)

func newConsoleSink() *consoleSink {
	return &consoleSink{}
}

func (s *consoleSink) ShowPortrait(side dialogue.Side, settings dialogue.PortraitSettings) {
	s.portraits[side] = portrait{visible: true, settings: settings}
}

func (s *consoleSink) HidePortrait(side dialogue.Side) {
	s.portraits[side].visible = false
}

func (s *consoleSink) AppendText(text string) {
	s.text.WriteString(text)
}

// ClearText moves the displayed text into the transcript.
func (s *consoleSink) ClearText() {
	if s.text.Len() > 0 {
		s.transcript.WriteString(s.text.String())
		s.transcript.WriteString("\n\n")
	}
	s.text.Reset()
}

func (s *consoleSink) PlayCharacterCue(audio string, pitch float64) {
	s.cues++
	s.lastPitch = pitch
}

func (s *consoleSink) ShowChoice(label string, linkIndex int) {
	s.choices = append(s.choices, choiceEntry{label: label, linkIndex: linkIndex})
}

// HideChoice and DestroyChoice act on the oldest matching entry, so a
// retiring choice and a new one sharing a link index stay apart.
func (s *consoleSink) HideChoice(linkIndex int) {
	for i := range s.choices {
		if s.choices[i].linkIndex == linkIndex && !s.choices[i].hidden {
			s.choices[i].hidden = true
			return
		}
	}
}

func (s *consoleSink) DestroyChoice(linkIndex int) {
	for i := range s.choices {
		if s.choices[i].linkIndex == linkIndex && s.choices[i].hidden {
			s.choices = append(s.choices[:i], s.choices[i+1:]...)
			return
		}
	}
}

func (s *consoleSink) SetWaitingIndicator(waiting bool) {
	s.waiting = waiting
}

func (s *consoleSink) TriggerSection(animation, effect string, forceIdle bool) {
	s.animation = animation
	s.effect = effect
}

func (s *consoleSink) Observe(n playback.Notification) {
	s.notifications = append(s.notifications, n)
}

// drain returns and forgets the notifications recorded so far.
func (s *consoleSink) drain() []playback.Notification {
	out := s.notifications
	s.notifications = nil
	return out
}

// visibleChoices returns the choices currently shown, oldest first.
func (s *consoleSink) visibleChoices() []choiceEntry {
	var out []choiceEntry
	for _, c := range s.choices {
		if !c.hidden {
			out = append(out, c)
		}
	}
	return out
}

// note appends a line of its own to the transcript.
func (s *consoleSink) note(line string) {
	s.transcript.WriteString(line)
	s.transcript.WriteString("\n\n")
}

// Transcript returns everything displayed so far, including the current text.
func (s *consoleSink) Transcript() string {
	return strings.TrimRight(s.transcript.String()+s.text.String(), "\n")
}
