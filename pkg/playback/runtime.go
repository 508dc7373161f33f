package playback

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jwebster45206/dialogue-engine/pkg/dialogue"
)

// State is the playback state of a Runtime.
type State int

const (
	StateIdle State = iota
	StateSelectingConversation
	StateDisplayingFrame
	StateRevealingSection
	StateAwaitingAdvance
	StateAwaitingChoice
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSelectingConversation:
		return "selecting_conversation"
	case StateDisplayingFrame:
		return "displaying_frame"
	case StateRevealingSection:
		return "revealing_section"
	case StateAwaitingAdvance:
		return "awaiting_advance"
	case StateAwaitingChoice:
		return "awaiting_choice"
	default:
		return "unknown"
	}
}

// Event reports what a Tick did.
type Event int

const (
	EventNone Event = iota
	EventCharacterRevealed
	EventSectionComplete // A section finished and the next one started
	EventAwaitingInput   // The frame's last section finished; waiting for advance or choice
)

func (e Event) String() string {
	switch e {
	case EventCharacterRevealed:
		return "character_revealed"
	case EventSectionComplete:
		return "section_complete"
	case EventAwaitingInput:
		return "awaiting_input"
	default:
		return "none"
	}
}

// Runtime plays conversations from a Registry into a Sink.
// It is driven by Tick and the Signal methods, all of which must be called
// from a single goroutine. It starts no goroutines of its own.
type Runtime struct {
	registry  *dialogue.Registry
	sink      Sink
	profile   Profile
	logger    *slog.Logger
	observers []Observer

	baseSpeed    float64
	charsPerLine int
	popInDelay   time.Duration
	destroyDelay time.Duration

	state        State
	conversation *dialogue.Conversation
	frame        *dialogue.Frame
	sectionIndex int
	reveal       revealer
	skip         bool
	frameCount   int // Frames entered so far; seeds the cue pitch jitter

	portrait        dialogue.PortraitSettings // Last portrait settings applied
	portraitApplied bool
	offered         []Choice
	choices         *choiceSet   // Choices of the current frame
	retiring        []*choiceSet // Choices of earlier frames still hiding
}

// New creates an idle Runtime.
func New(registry *dialogue.Registry, sink Sink, profile Profile, opts ...Option) *Runtime {
	r := &Runtime{
		registry:     registry,
		sink:         sink,
		profile:      profile,
		logger:       slog.Default(),
		baseSpeed:    DefaultTextSpeed,
		charsPerLine: DefaultCharsPerLine,
		popInDelay:   DefaultChoicePopInDelay,
		destroyDelay: DefaultChoiceDestroyDelay,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runtime) State() State {
	return r.state
}

// Conversation returns the playing conversation, or nil when idle.
func (r *Runtime) Conversation() *dialogue.Conversation {
	return r.conversation
}

// Frame returns the current frame, or nil when idle.
func (r *Runtime) Frame() *dialogue.Frame {
	return r.frame
}

// SectionIndex returns the index of the section being revealed.
func (r *Runtime) SectionIndex() int {
	return r.sectionIndex
}

// OfferedChoices returns the choices of the current prompt in link order.
func (r *Runtime) OfferedChoices() []Choice {
	out := make([]Choice, len(r.offered))
	copy(out, r.offered)
	return out
}

// StartConversation abandons any playback in progress and starts the first
// conversation, in load order, that autoloads and whose requirements pass.
// If none qualifies it returns ErrNoConversation and the runtime stays idle.
func (r *Runtime) StartConversation() error {
	r.Hide()
	r.state = StateSelectingConversation

	for _, conv := range r.registry.Conversations() {
		if !conv.Autoload {
			continue
		}
		ok, err := conv.MeetsRequirements(r.profile)
		if err != nil {
			r.logger.Warn("Skipping conversation with invalid requirements", "conversation", conv.ID, "error", err)
			continue
		}
		if ok {
			return r.start(conv)
		}
	}

	r.state = StateIdle
	r.logger.Info("No conversation available to start")
	r.notify(Notification{Type: NotifyPlaybackFailed, Error: ErrNoConversation.Error()})
	return ErrNoConversation
}

// StartConversationID abandons any playback in progress and starts the named
// conversation, ignoring its autoload flag and requirements.
func (r *Runtime) StartConversationID(id string) error {
	r.Hide()
	r.state = StateSelectingConversation

	conv, ok := r.registry.Conversation(id)
	if !ok {
		r.state = StateIdle
		err := fmt.Errorf("conversation %q: %w", id, ErrNoConversation)
		r.notify(Notification{Type: NotifyPlaybackFailed, Conversation: id, Error: err.Error()})
		return err
	}
	return r.start(conv)
}

func (r *Runtime) start(conv *dialogue.Conversation) error {
	frame, err := r.registry.StartingFrame(conv)
	if err != nil {
		return r.fail(err)
	}

	r.logger.Debug("Starting conversation", "conversation", conv.ID, "frame", frame.ID)
	r.notify(Notification{Type: NotifyConversationStarted, Conversation: conv.ID})
	r.enterFrame(conv, frame)
	return nil
}

// Tick advances playback by elapsed time. While a section is revealing,
// at most one character is revealed per call; with skip set the rest of the
// section is revealed at once. Choice show and hide sequences advance in
// every state.
func (r *Runtime) Tick(elapsed time.Duration) Event {
	r.tickChoices(elapsed)

	if r.state != StateRevealingSection {
		return EventNone
	}

	section, ok := r.currentSection()
	if !ok || r.reveal.done() {
		return r.completeSection()
	}

	if r.skip {
		var sb strings.Builder
		for !r.reveal.done() {
			sb.WriteRune(r.reveal.next(r.charsPerLine))
		}
		r.sink.AppendText(sb.String())
		return EventCharacterRevealed
	}

	r.reveal.elapsed += elapsed
	if r.reveal.elapsed < r.reveal.interval {
		return EventNone
	}
	r.reveal.elapsed = 0

	c := r.reveal.next(r.charsPerLine)
	r.sink.AppendText(string(c))
	if voiced(c) {
		jitter := noise2(float64(r.reveal.index)*0.1, float64(r.frameCount))
		r.sink.PlayCharacterCue(section.TextSettings.Audio, section.TextSettings.Pitch+jitter*section.TextSettings.PitchVariation)
	}
	return EventCharacterRevealed
}

// SignalAdvance handles the player's advance input. While a section is
// revealing it skips the rest of that section, if the frame allows it.
// While awaiting advance it ends the conversation on a terminal frame, and
// otherwise follows the first link whose requirements pass.
func (r *Runtime) SignalAdvance() error {
	switch r.state {
	case StateIdle, StateSelectingConversation:
		return ErrNotPlaying
	case StateDisplayingFrame, StateRevealingSection:
		if r.frame.AllowSkip {
			r.skip = true
		}
		return nil
	case StateAwaitingChoice:
		return nil
	}

	r.sink.SetWaitingIndicator(false)

	if r.frame.Terminal() {
		r.end()
		return nil
	}

	for i, link := range r.frame.Links {
		ok, err := link.Meets(r.profile)
		if err != nil {
			r.logger.Warn("Skipping link with invalid requirements",
				"conversation", r.conversation.ID,
				"frame", r.frame.ID,
				"link", i,
				"error", err)
			continue
		}
		if ok {
			return r.follow(link)
		}
	}

	return r.fail(&dialogue.GraphIntegrityError{
		Conversation: r.conversation.ID,
		Frame:        r.frame.ID,
		Reason:       "no link requirements passed",
	})
}

// SignalChoice takes the offered choice for the frame link at linkIndex.
func (r *Runtime) SignalChoice(linkIndex int) error {
	if r.state != StateAwaitingChoice {
		return ErrNotAwaitingChoice
	}
	if linkIndex < 0 || linkIndex >= len(r.frame.Links) {
		r.logger.Error("Choice index out of range",
			"conversation", r.conversation.ID,
			"frame", r.frame.ID,
			"index", linkIndex,
			"links", len(r.frame.Links))
		return fmt.Errorf("frame %q link %d: %w", r.frame.ID, linkIndex, ErrChoiceOutOfRange)
	}
	if !r.isOffered(linkIndex) {
		return fmt.Errorf("frame %q link %d: %w", r.frame.ID, linkIndex, ErrChoiceNotOffered)
	}

	link := r.frame.Links[linkIndex]
	conv, frame, err := r.registry.Resolve(r.conversation, r.frame, link)
	if err != nil {
		return r.fail(err)
	}

	if link.SaveChoice {
		r.profile.RecordChoice(link.ChoiceID)
	}
	r.notify(Notification{
		Type:         NotifyChoiceTaken,
		Conversation: r.conversation.ID,
		Frame:        r.frame.ID,
		LinkIndex:    linkIndex,
		ChoiceID:     link.ChoiceID,
	})

	r.retireChoices()
	r.moveTo(conv, frame)
	return nil
}

// Hide abandons playback at once and resets every presentation side effect.
func (r *Runtime) Hide() {
	if r.choices != nil {
		r.choices.abandon(r.sink)
		r.choices = nil
	}
	for _, cs := range r.retiring {
		cs.abandon(r.sink)
	}
	r.retiring = nil
	r.offered = nil

	r.sink.SetWaitingIndicator(false)
	r.sink.ClearText()
	r.hidePortraits()

	r.reveal.reset()
	r.skip = false
	r.sectionIndex = 0
	r.conversation = nil
	r.frame = nil
	r.state = StateIdle
}

func (r *Runtime) follow(link dialogue.Link) error {
	conv, frame, err := r.registry.Resolve(r.conversation, r.frame, link)
	if err != nil {
		return r.fail(err)
	}
	r.moveTo(conv, frame)
	return nil
}

func (r *Runtime) moveTo(conv *dialogue.Conversation, frame *dialogue.Frame) {
	if conv != r.conversation {
		r.notify(Notification{Type: NotifyConversationStarted, Conversation: conv.ID})
	}
	r.enterFrame(conv, frame)
}

func (r *Runtime) enterFrame(conv *dialogue.Conversation, frame *dialogue.Frame) {
	r.state = StateDisplayingFrame
	r.conversation = conv
	r.frame = frame
	r.offered = nil
	r.reveal.reset()
	r.frameCount++

	r.sink.ClearText()
	r.applyPortrait(frame.PortraitSettings)

	r.logger.Debug("Entered frame", "conversation", conv.ID, "frame", frame.ID, "sections", len(frame.Sections))
	r.notify(Notification{Type: NotifyFrameEntered, Conversation: conv.ID, Frame: frame.ID})

	r.startSection(0)
}

func (r *Runtime) startSection(i int) {
	r.state = StateRevealingSection
	r.sectionIndex = i
	r.skip = false

	section, ok := r.currentSection()
	if !ok {
		r.reveal.load("", 0)
		return
	}

	r.reveal.load(section.Text, revealInterval(r.baseSpeed, section.TextSettings.Speed))
	if !r.portraitApplied || r.portrait != section.PortraitSettings {
		r.applyPortrait(section.PortraitSettings)
	}
	if section.TriggerAnimation != "" || section.TriggerEffect != "" || section.ForceIdle {
		r.sink.TriggerSection(section.TriggerAnimation, section.TriggerEffect, section.ForceIdle)
	}
}

func (r *Runtime) currentSection() (*dialogue.Section, bool) {
	if r.frame == nil || r.sectionIndex >= len(r.frame.Sections) {
		return nil, false
	}
	return &r.frame.Sections[r.sectionIndex], true
}

func (r *Runtime) completeSection() Event {
	if r.sectionIndex+1 < len(r.frame.Sections) {
		r.startSection(r.sectionIndex + 1)
		return EventSectionComplete
	}

	r.skip = false
	if r.frame.DisplayChoices {
		r.offerChoices()
		if len(r.offered) > 0 {
			r.state = StateAwaitingChoice
			return EventAwaitingInput
		}
		if !r.frame.Terminal() {
			r.fail(&dialogue.GraphIntegrityError{
				Conversation: r.conversation.ID,
				Frame:        r.frame.ID,
				Reason:       "no choices passed their requirements",
			})
			return EventNone
		}
	}

	r.state = StateAwaitingAdvance
	r.sink.SetWaitingIndicator(true)
	return EventAwaitingInput
}

func (r *Runtime) offerChoices() {
	r.offered = nil
	for i, link := range r.frame.Links {
		ok, err := link.Meets(r.profile)
		if err != nil {
			r.logger.Warn("Not offering choice with invalid requirements",
				"conversation", r.conversation.ID,
				"frame", r.frame.ID,
				"link", i,
				"error", err)
			continue
		}
		if ok {
			r.offered = append(r.offered, Choice{LinkIndex: i, Label: link.Text})
		}
	}

	r.logger.Debug("Offering choices", "conversation", r.conversation.ID, "frame", r.frame.ID, "count", len(r.offered))
	if len(r.offered) == 0 {
		return
	}
	r.choices = newChoiceSet(r.offered)
	r.choices.advance(0, r.popInDelay, r.destroyDelay, r.sink)
}

func (r *Runtime) isOffered(linkIndex int) bool {
	for _, c := range r.offered {
		if c.LinkIndex == linkIndex {
			return true
		}
	}
	return false
}

func (r *Runtime) retireChoices() {
	r.offered = nil
	if r.choices == nil {
		return
	}
	r.choices.retire()
	r.choices.advance(0, r.popInDelay, r.destroyDelay, r.sink)
	if !r.choices.done {
		r.retiring = append(r.retiring, r.choices)
	}
	r.choices = nil
}

func (r *Runtime) tickChoices(elapsed time.Duration) {
	if r.choices != nil {
		r.choices.advance(elapsed, r.popInDelay, r.destroyDelay, r.sink)
	}
	active := r.retiring[:0]
	for _, cs := range r.retiring {
		cs.advance(elapsed, r.popInDelay, r.destroyDelay, r.sink)
		if !cs.done {
			active = append(active, cs)
		}
	}
	r.retiring = active
}

// applyPortrait shows an active portrait on its side and hides the other
// side. An inactive portrait hides both.
func (r *Runtime) applyPortrait(p dialogue.PortraitSettings) {
	if p.Active {
		r.sink.ShowPortrait(p.Position, p)
		r.sink.HidePortrait(p.Position.Other())
	} else {
		r.hidePortraits()
	}
	r.portrait = p
	r.portraitApplied = true
}

func (r *Runtime) hidePortraits() {
	for _, side := range dialogue.Sides {
		r.sink.HidePortrait(side)
	}
	r.portraitApplied = false
}

// end finishes the conversation after its terminal frame.
func (r *Runtime) end() {
	conv := r.conversation
	r.profile.MarkConversationSeen(conv.ID)
	r.hidePortraits()

	r.logger.Debug("Conversation ended", "conversation", conv.ID, "frame", r.frame.ID)
	r.notify(Notification{Type: NotifyConversationEnded, Conversation: conv.ID, Frame: r.frame.ID})

	r.conversation = nil
	r.frame = nil
	r.sectionIndex = 0
	r.state = StateIdle
}

// fail reports err, abandons the conversation and returns err.
func (r *Runtime) fail(err error) error {
	n := Notification{Type: NotifyPlaybackFailed, Error: err.Error()}
	if r.conversation != nil {
		n.Conversation = r.conversation.ID
	}
	if r.frame != nil {
		n.Frame = r.frame.ID
	}

	var gerr *dialogue.GraphIntegrityError
	if errors.As(err, &gerr) {
		r.logger.Error("Dialogue graph integrity error",
			"conversation", gerr.Conversation,
			"frame", gerr.Frame,
			"target", gerr.Target,
			"reason", gerr.Reason)
	} else {
		r.logger.Error("Playback failed", "error", err)
	}

	r.notify(n)
	r.Hide()
	return err
}

func (r *Runtime) notify(n Notification) {
	for _, o := range r.observers {
		o.Observe(n)
	}
}
