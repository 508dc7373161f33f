package playback

import (
	"time"
	"unicode"
)

// revealer walks one section's text a character at a time.
// The column count carries over between sections of the same frame, since
// their text shares one text box.
type revealer struct {
	text     []rune
	index    int // Characters revealed so far
	column   int // Characters since the last newline
	elapsed  time.Duration
	interval time.Duration
}

// load starts a new section's text. The column is kept.
func (rv *revealer) load(text string, interval time.Duration) {
	rv.text = []rune(text)
	rv.index = 0
	rv.elapsed = 0
	rv.interval = interval
}

// reset clears everything, for a new frame.
func (rv *revealer) reset() {
	*rv = revealer{}
}

func (rv *revealer) done() bool {
	return rv.index >= len(rv.text)
}

// next reveals one character and returns what should be displayed for it.
// A space that would push the following word past budget becomes a newline.
func (rv *revealer) next(budget int) rune {
	c := rv.text[rv.index]
	if c == ' ' && budget > 0 && rv.column+rv.wordSpan() > budget {
		c = '\n'
	}

	if c == '\n' {
		rv.column = 0
	} else {
		rv.column++
	}
	rv.index++
	return c
}

// wordSpan counts from the space at the cursor to the next space, or to the
// last character when no space follows.
func (rv *revealer) wordSpan() int {
	i := rv.index + 1
	for i+1 < len(rv.text) && rv.text[i] != ' ' {
		i++
	}
	return i - rv.index
}

// voiced reports whether a displayed character gets an audio cue.
func voiced(c rune) bool {
	return c != ' ' && c != '\n' && !unicode.IsControl(c)
}

// revealInterval is the delay between characters for a section.
// Non-positive rates reveal a character every tick.
func revealInterval(baseSpeed, multiplier float64) time.Duration {
	rate := baseSpeed * multiplier
	if rate <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / rate)
}

// wrap reveals text in full from column zero, for callers that need the
// final layout without playing it back.
func wrap(text string, budget int) string {
	var rv revealer
	rv.load(text, 0)
	out := make([]rune, 0, len(rv.text))
	for !rv.done() {
		out = append(out, rv.next(budget))
	}
	return string(out)
}
