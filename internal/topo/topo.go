// Package topo orders a closed stage set so that every stage appears after
// every stage it depends on, failing on cycles or references that resolve
// to neither a known stage nor a recorded unresolved external.
package topo

import (
	"errors"
	"fmt"
	"sort"

	"github.com/wharflab/prebake/internal/closure"
	"github.com/wharflab/prebake/internal/stage"
)

// ErrCycle is returned when the sort visits a stage already on the current
// DFS path.
var ErrCycle = errors.New("topo: dependency cycle detected")

// ErrMissingDep is returned when a stage depends on a name that is neither
// another stage in the set nor a recorded unresolved external reference.
var ErrMissingDep = errors.New("topo: missing dependency")

type color int

const (
	white color = iota
	gray
	black
)

// Sort returns stages ordered so that every stage-typed dependency of a
// stage precedes it. It pre-orders stages ascending by dependency count
// (fewest first) before the DFS walk, which seeds the walk leaves-first and
// tends to produce tighter waves downstream.
func Sort(stages *stage.Set, unresolved closure.Unresolved) ([]*stage.Stage, error) {
	ordered := stages.List()
	sort.SliceStable(ordered, func(i, j int) bool {
		return len(ordered[i].AllDeps()) < len(ordered[j].AllDeps())
	})

	colors := make(map[string]color, len(ordered))
	var result []*stage.Stage

	var visit func(s *stage.Stage) error
	visit = func(s *stage.Stage) error {
		switch colors[s.Name] {
		case black:
			return nil
		case gray:
			return fmt.Errorf("%w: %s", ErrCycle, s.Name)
		}

		colors[s.Name] = gray
		for _, dep := range s.AllDepsList() {
			if unresolved.Has(dep) {
				continue
			}
			depStage, ok := stages.Get(dep)
			if !ok {
				return fmt.Errorf("%w: stage %q depends on %q", ErrMissingDep, s.Name, dep)
			}
			if err := visit(depStage); err != nil {
				return err
			}
		}
		colors[s.Name] = black
		result = append(result, s)
		return nil
	}

	for _, s := range ordered {
		if err := visit(s); err != nil {
			return nil, err
		}
	}

	return result, nil
}
