// Package toolpath turns an analyzed blank into a G-code program: it orders
// the drilling and trimming jobs, expands each job into moves and writes the
// moves with modal word suppression.
package toolpath

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/chazu/canorus/pkg/analysis"
	"github.com/chazu/canorus/pkg/config"
)

// JobKind distinguishes drilling from trimming.
type JobKind int

const (
	DrillJob JobKind = iota
	CutJob
)

// Job is one unit of machining, placed along the feed axis.
type Job struct {
	Kind JobKind
	// Pos is the feed-axis position: the drill's axial depth or the face
	// being trimmed.
	Pos float64
	// Drill is set for DrillJob; Index is its position in Proc.Drills.
	Drill analysis.Drill
	Index int
	// End is set for the CutJob trimming the far end face.
	End bool
}

func (j Job) String() string {
	if j.Kind == CutJob {
		face := "start"
		if j.End {
			face = "end"
		}
		return fmt.Sprintf("cut %s face at %.3f", face, j.Pos)
	}
	return fmt.Sprintf("drill %d: depth %.3f angle %.3f lateral %.3f radius %.3f",
		j.Index+1, j.Drill.AxialDepth, degrees(j.Drill.Angle), j.Drill.LateralOffset, j.Drill.Radius)
}

// Plan orders the jobs for p: drills by ascending axial depth, and with
// cfg.Cut the start-face and end-face trims at their feed-axis positions.
// Jobs at the same position keep the order start trim, drills in analysis
// order, end trim.
//
// Drills whose approach prints identically (a counterbore, for example) are
// one plunge: they merge into the first, which takes the largest radius.
func Plan(p analysis.Proc, cfg config.Config) []Job {
	var jobs []Job
	if cfg.Cut {
		jobs = append(jobs, Job{Kind: CutJob, Pos: p.Min.Z})
	}
	var drills []Job
	for i, d := range p.Drills {
		k := slices.IndexFunc(drills, func(j Job) bool {
			return sameApproach(j.Drill, d, p, cfg)
		})
		if k >= 0 {
			drills[k].Drill.Radius = max(drills[k].Drill.Radius, d.Radius)
			continue
		}
		drills = append(drills, Job{Kind: DrillJob, Pos: d.AxialDepth, Drill: d, Index: i})
	}
	jobs = append(jobs, drills...)
	if cfg.Cut {
		jobs = append(jobs, Job{Kind: CutJob, Pos: p.Max.Z, End: true})
	}
	slices.SortStableFunc(jobs, func(a, b Job) int {
		return cmp.Compare(a.Pos, b.Pos)
	})
	return jobs
}

// circumradius is the radius of the circle around the stock cross-section.
func circumradius(p analysis.Proc) float64 {
	return math.Hypot(p.Size.X, p.Size.Y) / 2
}

// SafeHeight is the Z at which the drill clears the stock at any rotation.
func SafeHeight(p analysis.Proc, cfg config.Config) float64 {
	return cfg.Offset.Z + circumradius(p) + cfg.Drill.Pulling
}

// CutPasses is the number of A-axis pass pairs needed to trim through the
// whole cross-section.
func CutPasses(p analysis.Proc, cfg config.Config) int {
	if cfg.Endmill.Step <= 0 {
		return 0
	}
	return int(math.Ceil(circumradius(p) / cfg.Endmill.Step / 2))
}

// Moves expands j into machine moves.
func (j Job) Moves(p analysis.Proc, cfg config.Config) []Move {
	if j.Kind == CutJob {
		return cutMoves(j, p, cfg)
	}
	return drillMoves(j.Drill, p, cfg)
}

// drillMoves positions above the hole, plunges to the stock axis and
// retracts.
func drillMoves(d analysis.Drill, p analysis.Proc, cfg config.Config) []Move {
	off := cfg.Offset
	safe := SafeHeight(p, cfg)
	return []Move{
		RapidTo(
			Word{AxisX, off.X + d.AxialDepth},
			Word{AxisY, off.Y + d.LateralOffset},
			Word{AxisZ, safe},
			Word{AxisA, off.A + degrees(d.Angle)},
			Word{AxisB, off.B + cfg.Drill.Offset},
		),
		LinearTo(cfg.Drill.FeedRate, Word{AxisZ, off.Z}),
		RapidTo(Word{AxisZ, safe}),
	}
}

// cutMoves trims an end face with the endmill. The endmill sits gap ahead
// of the drill on X; it approaches outside the face, then steps B inward
// by one step per pair of moves, turning A a full turn out and back.
func cutMoves(j Job, p analysis.Proc, cfg config.Config) []Move {
	off := cfg.Offset
	r := circumradius(p)

	x := off.X + j.Pos - cfg.Endmill.Radius + cfg.Gap
	if j.End {
		x = off.X + j.Pos + cfg.Endmill.Radius + cfg.Gap
	}
	start := off.B + cfg.Endmill.Offset + r

	moves := []Move{RapidTo(
		Word{AxisX, x},
		Word{AxisY, off.Y},
		Word{AxisZ, SafeHeight(p, cfg)},
		Word{AxisA, off.A},
		Word{AxisB, start},
	)}
	b := start
	for i := 0; i < CutPasses(p, cfg); i++ {
		b -= cfg.Endmill.Step
		moves = append(moves,
			LinearTo(cfg.Endmill.FeedRate, Word{AxisA, off.A + 360}, Word{AxisB, b}),
			LinearTo(cfg.Endmill.FeedRate, Word{AxisA, off.A}, Word{AxisB, b}),
		)
	}
	moves = append(moves, LinearTo(cfg.FeedRate, Word{AxisB, start}))
	return moves
}

// sameApproach reports whether a and b position the drill at the same
// printed coordinates.
func sameApproach(a, b analysis.Drill, p analysis.Proc, cfg config.Config) bool {
	wa := drillMoves(a, p, cfg)[0].Words
	wb := drillMoves(b, p, cfg)[0].Words
	for i := range wa {
		if formatAxis(wa[i].Value) != formatAxis(wb[i].Value) {
			return false
		}
	}
	return true
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
