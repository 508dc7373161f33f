package dialogue

import (
	"fmt"
)

// Registry owns loaded conversations and NPC settings.
// It is filled by a Loader and read-only during playback.
type Registry struct {
	order         []string
	conversations map[string]*Conversation
	npcs          map[string]*NPCSettings
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		conversations: make(map[string]*Conversation),
		npcs:          make(map[string]*NPCSettings),
	}
}

// Add stores a conversation. A later conversation with the same ID replaces
// the earlier one but keeps its position in load order.
func (r *Registry) Add(c *Conversation) {
	if _, exists := r.conversations[c.ID]; !exists {
		r.order = append(r.order, c.ID)
	}
	r.conversations[c.ID] = c
}

// AddNPC stores NPC settings, replacing any entry with the same ID.
func (r *Registry) AddNPC(n *NPCSettings) {
	r.npcs[n.ID] = n
}

// Conversations returns all conversations in load order.
func (r *Registry) Conversations() []*Conversation {
	out := make([]*Conversation, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.conversations[id])
	}
	return out
}

func (r *Registry) Conversation(id string) (*Conversation, bool) {
	c, ok := r.conversations[id]
	return c, ok
}

func (r *Registry) NPC(id string) (*NPCSettings, bool) {
	n, ok := r.npcs[id]
	return n, ok
}

// Len returns the number of conversations.
func (r *Registry) Len() int {
	return len(r.order)
}

// StartingFrame resolves a conversation's starting frame.
func (r *Registry) StartingFrame(c *Conversation) (*Frame, error) {
	f, ok := c.Frame(c.StartingFrame)
	if !ok {
		return nil, &GraphIntegrityError{
			Conversation: c.ID,
			Target:       c.StartingFrame,
			Reason:       "starting frame not found",
		}
	}
	return f, nil
}

// Resolve finds where a link leads from a frame of conversation from.
// A link naming a conversation enters that conversation, at the named frame
// if one is given and otherwise at its starting frame. A link naming neither
// re-enters from's starting frame.
func (r *Registry) Resolve(from *Conversation, frame *Frame, link Link) (*Conversation, *Frame, error) {
	conv := from
	if link.Conversation != "" {
		target, ok := r.Conversation(link.Conversation)
		if !ok {
			return nil, nil, &GraphIntegrityError{
				Conversation: from.ID,
				Frame:        frame.ID,
				Target:       link.Conversation,
				Reason:       "linked conversation not found",
			}
		}
		conv = target
	}

	if link.Frame == "" {
		f, err := r.StartingFrame(conv)
		if err != nil {
			return nil, nil, err
		}
		return conv, f, nil
	}

	f, ok := conv.Frame(link.Frame)
	if !ok {
		return nil, nil, &GraphIntegrityError{
			Conversation: conv.ID,
			Frame:        frame.ID,
			Target:       link.Frame,
			Reason:       "linked frame not found",
		}
	}
	return conv, f, nil
}

// Validate checks every conversation for edges that cannot be followed,
// requirements of unknown kind, and choice links without a label.
func (r *Registry) Validate() []error {
	var errs []error
	for _, conv := range r.Conversations() {
		if conv.ID == "" {
			errs = append(errs, fmt.Errorf("conversation without id (starting frame %q)", conv.StartingFrame))
		}
		if _, err := r.StartingFrame(conv); err != nil {
			errs = append(errs, err)
		}
		for _, req := range conv.Requirements {
			if !req.Kind.Valid() {
				errs = append(errs, fmt.Errorf("conversation %q: requirement of unknown kind", conv.ID))
			}
		}

		for _, frame := range conv.OrderedFrames() {
			if !frame.EndOnThisFrame && len(frame.Links) == 0 {
				errs = append(errs, &GraphIntegrityError{Conversation: conv.ID, Frame: frame.ID, Reason: "non-terminal frame without links"})
			}
			if len(frame.Sections) == 0 {
				errs = append(errs, fmt.Errorf("conversation %q frame %q: no sections", conv.ID, frame.ID))
			}
			for i, link := range frame.Links {
				if _, _, err := r.Resolve(conv, frame, link); err != nil {
					errs = append(errs, err)
				}
				for _, req := range link.Requirements {
					if !req.Kind.Valid() {
						errs = append(errs, fmt.Errorf("conversation %q frame %q link %d: requirement of unknown kind", conv.ID, frame.ID, i))
					}
				}
				if frame.DisplayChoices && link.Text == "" {
					errs = append(errs, fmt.Errorf("conversation %q frame %q link %d: choice has no text", conv.ID, frame.ID, i))
				}
			}
		}
	}
	return errs
}
