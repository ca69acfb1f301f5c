package toolpath

import (
	"strconv"
	"strings"
)

// Mode is a G-code motion mode.
type Mode byte

const (
	Rapid  Mode = iota + 1 // G0
	Linear                 // G1
)

func (m Mode) String() string {
	switch m {
	case Rapid:
		return "G0"
	case Linear:
		return "G1"
	}
	return "G?"
}

// Axis letters in output order.
const (
	AxisX byte = 'X'
	AxisY byte = 'Y'
	AxisZ byte = 'Z'
	AxisA byte = 'A'
	AxisB byte = 'B'
)

// Word is one axis target of a move.
type Word struct {
	Axis  byte
	Value float64
}

// Move is one motion instruction. Feed is only used by Linear moves.
type Move struct {
	Mode  Mode
	Words []Word
	Feed  float64
}

// RapidTo returns a G0 move.
func RapidTo(words ...Word) Move {
	return Move{Mode: Rapid, Words: words}
}

// LinearTo returns a G1 move at feed.
func LinearTo(feed float64, words ...Word) Move {
	return Move{Mode: Linear, Words: words, Feed: feed}
}

// Writer serializes moves, leaving out every word the controller already
// knows: the motion word is written when the mode changes (and on a feed move
// whose feed changed), an axis word when its printed value changes and F when
// the feed changes. A move that would print nothing is dropped.
type Writer struct {
	lines []string

	mode     Mode
	axes     map[byte]string
	feed     float64
	haveFeed bool
}

// NewWriter returns a Writer with no modal state.
func NewWriter() *Writer {
	return &Writer{axes: make(map[byte]string)}
}

// Comment writes a ';' comment line.
func (w *Writer) Comment(text string) {
	text = strings.NewReplacer("\r", " ", "\n", " ").Replace(text)
	w.lines = append(w.lines, "; "+text)
}

// Code writes a bare control line such as M3.
func (w *Writer) Code(code string) {
	w.lines = append(w.lines, code)
}

// Move writes m, if it has anything to say.
func (w *Writer) Move(m Move) {
	feedChanged := m.Mode == Linear && (!w.haveFeed || m.Feed != w.feed)

	var words []string
	var changed []Word
	for _, wd := range m.Words {
		if w.axes[wd.Axis] == formatAxis(wd.Value) {
			continue
		}
		changed = append(changed, wd)
		words = append(words, string(wd.Axis)+formatAxis(wd.Value))
	}
	if len(words) == 0 && !feedChanged {
		return
	}

	var parts []string
	if m.Mode != w.mode || feedChanged {
		parts = append(parts, m.Mode.String())
		w.mode = m.Mode
	}
	parts = append(parts, words...)
	if feedChanged {
		parts = append(parts, "F"+strconv.FormatFloat(m.Feed, 'f', -1, 64))
		w.feed, w.haveFeed = m.Feed, true
	}
	for _, wd := range changed {
		w.axes[wd.Axis] = formatAxis(wd.Value)
	}
	w.lines = append(w.lines, strings.Join(parts, " "))
}

// Lines returns the lines written so far.
func (w *Writer) Lines() []string {
	return w.lines
}

// String returns the program text, one line per instruction.
func (w *Writer) String() string {
	if len(w.lines) == 0 {
		return ""
	}
	return strings.Join(w.lines, "\n") + "\n"
}

// formatAxis prints v with three decimals; negative zero prints as zero.
func formatAxis(v float64) string {
	s := strconv.FormatFloat(v, 'f', 3, 64)
	if s == "-0.000" {
		return "0.000"
	}
	return s
}
