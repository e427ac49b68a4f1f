// Package wave partitions a topologically sorted stage list into ordered
// barrier groups ("waves") such that no stage in a wave depends on any
// other stage in the same wave.
package wave

import (
	"github.com/wharflab/prebake/internal/closure"
	"github.com/wharflab/prebake/internal/stage"
)

// stickyBool is optimistic until the first false vote, after which it stays
// false for good: setTrue is ignored once setFalse has been called.
type stickyBool struct {
	value   bool
	decided bool
}

func newStickyBool() *stickyBool {
	return &stickyBool{value: true}
}

func (b *stickyBool) setTrue() {
	if b.decided {
		return
	}
	b.value = true
}

func (b *stickyBool) setFalse() {
	b.value = false
	b.decided = true
}

// Result is the outcome of one grouping pass: the ordered waves plus any
// dependency names that fell into the "neither seen, satisfied, nor
// unresolved" branch — a warning-only signal of an upstream inconsistency,
// never fatal to the current pass.
type Result struct {
	Waves    [][]*stage.Stage
	Warnings []string
}

// Group partitions ordered (the output of topo.Sort) into waves. unresolved
// seeds both the seen and satisfied sets, so external references never
// force a flush.
//
// Single pass over ordered with a sticky boolean per stage: once any
// co-wave dependency is unsatisfied, the stage starts a fresh wave. The
// final wave is flushed unconditionally after the loop.
func Group(ordered []*stage.Stage, unresolved closure.Unresolved) Result {
	seen := make(map[string]struct{}, len(unresolved))
	satisfied := make(map[string]struct{}, len(unresolved))
	for name := range unresolved {
		seen[name] = struct{}{}
		satisfied[name] = struct{}{}
	}

	var res Result
	var current []*stage.Stage

	flush := func() {
		if len(current) == 0 {
			return
		}
		for _, s := range current {
			satisfied[s.Name] = struct{}{}
		}
		res.Waves = append(res.Waves, current)
		current = nil
	}

	for _, s := range ordered {
		seen[s.Name] = struct{}{}

		sticky := newStickyBool()
		for d := range s.AllDeps() {
			_, inSeen := seen[d]
			_, inSatisfied := satisfied[d]

			switch {
			case !inSeen && !inSatisfied:
				if !unresolved.Has(d) {
					res.Warnings = append(res.Warnings, d)
				}
			case !inSeen && inSatisfied:
				sticky.setTrue()
			case inSeen && !inSatisfied:
				sticky.setFalse()
			default:
				sticky.setTrue()
			}
		}

		if sticky.value {
			current = append(current, s)
		} else {
			flush()
			current = []*stage.Stage{s}
		}
	}

	flush()

	return res
}
