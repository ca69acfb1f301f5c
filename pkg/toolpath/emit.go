package toolpath

import (
	"github.com/chazu/canorus/pkg/analysis"
	"github.com/chazu/canorus/pkg/config"
)

// Program control markers.
const (
	StartMarker = "M3"
	EndMarker   = "M30"
)

// Emit writes the complete program for p: the header lines as comments, the
// start marker, every planned job as a comment followed by its moves, and the
// end marker.
func Emit(p analysis.Proc, cfg config.Config, header []string) string {
	w := NewWriter()
	for _, h := range header {
		w.Comment(h)
	}
	w.Code(StartMarker)
	for _, j := range Plan(p, cfg) {
		w.Comment(j.String())
		for _, m := range j.Moves(p, cfg) {
			w.Move(m)
		}
	}
	w.Code(EndMarker)
	return w.String()
}
