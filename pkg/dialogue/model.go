package dialogue

import (
	"github.com/jwebster45206/dialogue-engine/pkg/conditionals"
)

// Link is an edge from one frame to another frame or conversation.
type Link struct {
	Conversation string                     `json:"linkedConversation,omitempty"` // Target conversation; empty means the current one
	Frame        string                     `json:"linkedFrame,omitempty"`        // Target frame; empty means the conversation's starting frame
	Text         string                     `json:"text,omitempty"`               // Label shown when offered as a choice
	SaveChoice   bool                       `json:"saveChoice,omitempty"`         // Record ChoiceID on the profile when taken
	ChoiceID     string                     `json:"choiceId,omitempty"`           // Comparison ID for choice-made requirements
	Requirements []conditionals.Requirement `json:"requirements,omitempty"`       // All must pass for the link to be followed or offered
}

// Meets reports whether the link's guard requirements pass.
func (l *Link) Meets(view conditionals.ProfileView) (bool, error) {
	return conditionals.Meets(l.Requirements, view)
}

// Section is one block of text revealed progressively within a frame.
type Section struct {
	PortraitSettings PortraitSettings `json:"portraitSettings"`
	TextSettings     TextSettings     `json:"textSettings"`
	TriggerAnimation string           `json:"triggerAnimation,omitempty"`
	TriggerEffect    string           `json:"triggerEffect,omitempty"`
	ForceIdle        bool             `json:"forceIdle,omitempty"`
	Text             string           `json:"text,omitempty"` // May be empty; the section then only fires its triggers
}

// Frame is one node of a conversation graph.
type Frame struct {
	ID               string           `json:"id"`
	Speaker          string           `json:"npcSettings,omitempty"` // NPC settings entry the frame's defaults came from
	EndOnThisFrame   bool             `json:"endOnThisFrame"`
	DisplayChoices   bool             `json:"displayChoices"`
	Links            []Link           `json:"links,omitempty"`
	AllowSkip        bool             `json:"allowSkip"`
	WaitForInput     bool             `json:"waitForInput"`
	PortraitSettings PortraitSettings `json:"portraitSettings"`
	TextSettings     TextSettings     `json:"textSettings"`
	Sections         []Section        `json:"sections,omitempty"`
}

// Terminal reports whether playback ends after this frame.
func (f *Frame) Terminal() bool {
	return f.EndOnThisFrame
}

// Conversation is a named, independently selectable dialogue graph.
type Conversation struct {
	ID               string                     `json:"id"`
	Autoload         bool                       `json:"autoload"`
	Requirements     []conditionals.Requirement `json:"requirements,omitempty"`
	AllowSkip        bool                       `json:"allowSkip"`
	WaitForInput     bool                       `json:"waitForInput"`
	PortraitSettings PortraitSettings           `json:"portraitSettings"`
	TextSettings     TextSettings               `json:"textSettings"`
	StartingFrame    string                     `json:"startingFrame"`
	Frames           map[string]*Frame          `json:"frames"`
	FrameOrder       []string                   `json:"-"` // Frame IDs in declared order
}

// Frame looks up a member frame by ID.
func (c *Conversation) Frame(id string) (*Frame, bool) {
	f, ok := c.Frames[id]
	return f, ok
}

// MeetsRequirements reports whether the conversation may be auto-selected for view.
func (c *Conversation) MeetsRequirements(view conditionals.ProfileView) (bool, error) {
	return conditionals.Meets(c.Requirements, view)
}

// OrderedFrames returns the frames in declared order.
func (c *Conversation) OrderedFrames() []*Frame {
	frames := make([]*Frame, 0, len(c.FrameOrder))
	for _, id := range c.FrameOrder {
		if f, ok := c.Frames[id]; ok {
			frames = append(frames, f)
		}
	}
	return frames
}

// NPCSettings is a named bundle of default settings for a speaker.
// Frames naming the speaker merge these over the conversation defaults.
type NPCSettings struct {
	ID               string            `json:"id" yaml:"id"`
	PortraitSettings *PortraitOverride `json:"portraitSettings,omitempty" yaml:"portraitSettings,omitempty"`
	TextSettings     *TextOverride     `json:"textSettings,omitempty" yaml:"textSettings,omitempty"`
}
