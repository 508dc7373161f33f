package playback

import "time"

// Choice is a link offered to the player.
type Choice struct {
	LinkIndex int    // Index into the frame's links
	Label     string // The link's text
}

// choiceSet staggers the appearance of a frame's choices and, once one is
// taken, their disappearance. Sets run on tick time and may overlap with
// the next frame's reveal.
type choiceSet struct {
	shown   []Choice
	pending []Choice
	hiding  bool
	hidden  int           // Number of shown choices already hidden
	wait    time.Duration // Time left until the next step
	done    bool
}

func newChoiceSet(choices []Choice) *choiceSet {
	pending := make([]Choice, len(choices))
	copy(pending, choices)
	return &choiceSet{pending: pending}
}

// retire switches the set to hiding. Choices not yet shown are dropped.
func (cs *choiceSet) retire() {
	cs.hiding = true
	cs.pending = nil
	cs.wait = 0
}

// advance runs every step whose delay has passed.
func (cs *choiceSet) advance(elapsed, popIn, destroyDelay time.Duration, sink Sink) {
	if cs.done {
		return
	}
	cs.wait -= elapsed

	for cs.wait <= 0 && !cs.done {
		if !cs.hiding {
			if len(cs.pending) == 0 {
				return
			}
			c := cs.pending[0]
			cs.pending = cs.pending[1:]
			sink.ShowChoice(c.Label, c.LinkIndex)
			cs.shown = append(cs.shown, c)
			cs.wait += popIn
			continue
		}

		if cs.hidden < len(cs.shown) {
			sink.HideChoice(cs.shown[cs.hidden].LinkIndex)
			cs.hidden++
			cs.wait += popIn
			if cs.hidden == len(cs.shown) {
				cs.wait += destroyDelay
			}
			continue
		}

		cs.destroy(sink)
	}
}

// abandon hides and destroys every shown choice at once.
func (cs *choiceSet) abandon(sink Sink) {
	if cs.done {
		return
	}
	for ; cs.hidden < len(cs.shown); cs.hidden++ {
		sink.HideChoice(cs.shown[cs.hidden].LinkIndex)
	}
	cs.destroy(sink)
}

func (cs *choiceSet) destroy(sink Sink) {
	for _, c := range cs.shown {
		sink.DestroyChoice(c.LinkIndex)
	}
	cs.shown = nil
	cs.pending = nil
	cs.done = true
}
