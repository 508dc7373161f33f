package playback

import (
	"github.com/jwebster45206/dialogue-engine/pkg/conditionals"
	"github.com/jwebster45206/dialogue-engine/pkg/dialogue"
)

// Sink receives the presentation side effects of playback.
// Implementations render text, portraits and choices; the runtime never
// reads anything back from them.
type Sink interface {
	ShowPortrait(side dialogue.Side, settings dialogue.PortraitSettings)
	HidePortrait(side dialogue.Side)
	AppendText(text string)
	ClearText()
	PlayCharacterCue(audio string, pitch float64)
	ShowChoice(label string, linkIndex int)
	HideChoice(linkIndex int)
	DestroyChoice(linkIndex int)
	SetWaitingIndicator(waiting bool)
	TriggerSection(animation, effect string, forceIdle bool)
}

// Profile is the player state the runtime queries and updates.
type Profile interface {
	conditionals.ProfileView
	RecordChoice(choiceID string)
	MarkConversationSeen(conversationID string)
}
