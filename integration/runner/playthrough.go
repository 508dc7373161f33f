package runner

import (
	"fmt"
	"strings"
	"time"

	"github.com/jwebster45206/dialogue-engine/pkg/dialogue"
	"github.com/jwebster45206/dialogue-engine/pkg/playback"
	"github.com/jwebster45206/dialogue-engine/pkg/profile"
)

// playthrough is one suite's runtime, with the sink and profile it drives.
type playthrough struct {
	runtime  *playback.Runtime
	sink     *recordingSink
	profile  *profile.Profile
	interval time.Duration
	maxTicks int
	lastErr  error // Returned by the most recent action
}

// settle ticks until playback waits for input or stops.
func (p *playthrough) settle() error {
	for i := 0; i < p.maxTicks; i++ {
		switch p.runtime.State() {
		case playback.StateDisplayingFrame, playback.StateRevealingSection:
			p.runtime.Tick(p.interval)
		default:
			return nil
		}
	}
	return fmt.Errorf("playback still %s after %d ticks", p.runtime.State(), p.maxTicks)
}

// recordingSink keeps the displayed text and the notification types raised.
type recordingSink struct {
	text          strings.Builder
	notifications []string
}

func (s *recordingSink) ShowPortrait(dialogue.Side, dialogue.PortraitSettings) {}
func (s *recordingSink) HidePortrait(dialogue.Side)                            {}
func (s *recordingSink) AppendText(text string)                                { s.text.WriteString(text) }
func (s *recordingSink) ClearText()                                            { s.text.Reset() }
func (s *recordingSink) PlayCharacterCue(string, float64)                      {}
func (s *recordingSink) ShowChoice(string, int)                                {}
func (s *recordingSink) HideChoice(int)                                        {}
func (s *recordingSink) DestroyChoice(int)                                     {}
func (s *recordingSink) SetWaitingIndicator(bool)                              {}
func (s *recordingSink) TriggerSection(string, string, bool)                   {}

func (s *recordingSink) Observe(n playback.Notification) {
	s.notifications = append(s.notifications, string(n.Type))
}
