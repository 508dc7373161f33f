package dialogue

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Side is the screen side a portrait is displayed on.
type Side int

const (
	SideLeft Side = iota
	SideRight
)

// Sides lists every portrait side, in display order.
var Sides = []Side{SideLeft, SideRight}

func (s Side) String() string {
	if s == SideRight {
		return "right"
	}
	return "left"
}

// Other returns the opposite side.
func (s Side) Other() Side {
	if s == SideRight {
		return SideLeft
	}
	return SideRight
}

// parseSide treats anything other than "left" as right.
func parseSide(v string) Side {
	if strings.TrimSpace(v) == "left" {
		return SideLeft
	}
	return SideRight
}

func (s *Side) UnmarshalJSON(data []byte) error {
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("position: expected string: %w", err)
	}
	*s = parseSide(v)
	return nil
}

func (s *Side) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("position: expected scalar at line %d", node.Line)
	}
	*s = parseSide(node.Value)
	return nil
}

// TextSettings controls how a section's text is revealed and voiced.
type TextSettings struct {
	Speed          float64 `json:"textSpeed"`          // Multiplier on the runtime's base reveal speed
	Pitch          float64 `json:"textPitch"`          // Base pitch of the per-character cue
	PitchVariation float64 `json:"textPitchVariation"` // Scale of the pitch jitter
	Audio          string  `json:"textAudio"`          // Name of the per-character cue
}

// DefaultTextSettings returns the settings used when content sets nothing.
func DefaultTextSettings() TextSettings {
	return TextSettings{
		Speed:          1.0,
		Pitch:          1.0,
		PitchVariation: 0.0,
		Audio:          "Dialogue-Default",
	}
}

// TextOverride holds the text fields set explicitly at one level of content.
// Nil fields inherit from the level below.
type TextOverride struct {
	Speed          *Float  `json:"textSpeed,omitempty" yaml:"textSpeed,omitempty"`
	Pitch          *Float  `json:"textPitch,omitempty" yaml:"textPitch,omitempty"`
	PitchVariation *Float  `json:"textPitchVariation,omitempty" yaml:"textPitchVariation,omitempty"`
	Audio          *string `json:"textAudio,omitempty" yaml:"textAudio,omitempty"`
}

// Merge returns a copy of t with the fields set in o applied.
func (t TextSettings) Merge(o *TextOverride) TextSettings {
	if o == nil {
		return t
	}
	if o.Speed != nil {
		t.Speed = float64(*o.Speed)
	}
	if o.Pitch != nil {
		t.Pitch = float64(*o.Pitch)
	}
	if o.PitchVariation != nil {
		t.PitchVariation = float64(*o.PitchVariation)
	}
	if o.Audio != nil {
		t.Audio = *o.Audio
	}
	return t
}

// PortraitSettings controls the speaker portrait shown alongside a frame.
type PortraitSettings struct {
	Active        bool   `json:"active"`
	Large         bool   `json:"large"`
	Image         string `json:"image,omitempty"`
	DisplayName   string `json:"displayName,omitempty"`
	Position      Side   `json:"position"`
	IdleAnimation string `json:"idleAnimation"`
	TalkAnimation string `json:"talkAnimation"`
}

// DefaultPortraitSettings returns the settings used when content sets nothing.
func DefaultPortraitSettings() PortraitSettings {
	return PortraitSettings{
		Active:        true,
		Position:      SideLeft,
		IdleAnimation: "Neutral",
		TalkAnimation: "Neutral",
	}
}

// PortraitOverride holds the portrait fields set explicitly at one level of content.
type PortraitOverride struct {
	Active        *Bool   `json:"active,omitempty" yaml:"active,omitempty"`
	Large         *Bool   `json:"large,omitempty" yaml:"large,omitempty"`
	Image         *string `json:"image,omitempty" yaml:"image,omitempty"`
	DisplayName   *string `json:"displayName,omitempty" yaml:"displayName,omitempty"`
	Position      *Side   `json:"position,omitempty" yaml:"position,omitempty"`
	IdleAnimation *string `json:"idleAnimation,omitempty" yaml:"idleAnimation,omitempty"`
	TalkAnimation *string `json:"talkAnimation,omitempty" yaml:"talkAnimation,omitempty"`
}

// Merge returns a copy of p with the fields set in o applied.
func (p PortraitSettings) Merge(o *PortraitOverride) PortraitSettings {
	if o == nil {
		return p
	}
	if o.Active != nil {
		p.Active = bool(*o.Active)
	}
	if o.Large != nil {
		p.Large = bool(*o.Large)
	}
	if o.Image != nil {
		p.Image = *o.Image
	}
	if o.DisplayName != nil {
		p.DisplayName = *o.DisplayName
	}
	if o.Position != nil {
		p.Position = *o.Position
	}
	if o.IdleAnimation != nil {
		p.IdleAnimation = *o.IdleAnimation
	}
	if o.TalkAnimation != nil {
		p.TalkAnimation = *o.TalkAnimation
	}
	return p
}
