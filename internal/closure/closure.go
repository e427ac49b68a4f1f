// Package closure computes the transitive dependency closure over a stage
// set: after running, every stage's TransitiveDeps names every stage and
// external reference reachable through any chain of declared dependencies
// or base-image edges.
package closure

import (
	"github.com/wharflab/prebake/internal/localimage"
	"github.com/wharflab/prebake/internal/stage"
)

// Unresolved is the set of dependency names encountered during closure that
// do not name any stage in the current run. They are treated as external
// base images and carried forward as leaves for the topological sorter.
type Unresolved map[string]struct{}

// Add records name as unresolved.
func (u Unresolved) Add(name string) {
	u[name] = struct{}{}
}

// Has reports whether name was recorded as unresolved.
func (u Unresolved) Has(name string) bool {
	_, ok := u[name]
	return ok
}

// Run walks every stage in stages not already marked Explored and populates
// its TransitiveDeps, mutating stage records in place. It returns the set of
// unresolved references accumulated along the way. Safe to call once per
// stage.Set; calling it again on a set where every stage is Explored is a
// no-op that returns an empty Unresolved set.
func Run(stages *stage.Set) Unresolved {
	unresolved := make(Unresolved)

	for _, s := range stages.List() {
		if s.Explored {
			continue
		}
		visit(stages, s, s, unresolved, 0, map[*stage.Stage]struct{}{s: {}})
		s.Explored = true
	}

	return unresolved
}

// visit accumulates examine's full dependency set into record's
// TransitiveDeps, recursing into any dependency that itself names a stage.
// depth is purely observational, passed explicitly rather than held in
// process-wide state. path holds every stage currently on this call's
// recursion stack; a dependency already in path closes a cycle, and the
// walk stops there instead of recursing forever — the cycle itself is
// still reported as ErrCycle by the topological sorter, which runs next.
//
// examine.DepIterOrder() is read once into snapshot before any mutation:
// RemoveVersion below rewrites examine's declared dependencies in place,
// and the driving iteration must walk the pre-mutation view.
func visit(stages *stage.Set, examine, record *stage.Stage, unresolved Unresolved, depth int, path map[*stage.Stage]struct{}) {
	snapshot := examine.DepIterOrder()

	if record.Explored {
		for _, dep := range snapshot {
			record.TransitiveDeps[dep] = struct{}{}
		}
		return
	}

	for _, dependency := range snapshot {
		if localimage.IsLocal(dependency, stages) {
			examine.RemoveVersion(dependency)
			dependency = localimage.StripTag(dependency)
		}

		depStage, ok := stages.Get(dependency)
		if !ok {
			unresolved.Add(dependency)
			continue
		}

		for _, e := range depStage.DepIterOrder() {
			record.TransitiveDeps[e] = struct{}{}
			eStage, ok := stages.Get(e)
			if !ok {
				unresolved.Add(e)
				continue
			}
			if _, cycle := path[eStage]; cycle {
				continue
			}
			path[eStage] = struct{}{}
			visit(stages, eStage, record, unresolved, depth+1, path)
			delete(path, eStage)
		}
	}
}
