// Package stage models a single build stage extracted from a Dockerfile:
// its identity, its normalized base image, and the dependencies it declares
// directly or accumulates through transitive closure.
package stage

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrInvalidInput is returned by AddDependency for an empty dependency
// string. Non-string dependencies are ruled out by the parameter type.
var ErrInvalidInput = errors.New("stage: dependency must be a non-empty string")

// ErrDuplicateStage is returned by Set.Add when two stages share a name.
var ErrDuplicateStage = errors.New("stage: duplicate stage name")

// Stage is one build target defined by a `FROM ... AS name` directive.
type Stage struct {
	// FilePath is the absolute path of the build file defining this stage.
	FilePath string

	// Name is this stage's alias; unique across the whole run.
	Name string

	// BaseImage is the parent reference with registry prefix and version
	// tag stripped into Registry and VersionTag.
	BaseImage string

	// Registry is the optional prefix up to and including the last '/' of
	// the original base image reference.
	Registry string

	// VersionTag is the optional suffix after ':' of the original base
	// image reference.
	VersionTag string

	// declaredDeps holds the stage names and external references this
	// stage references directly via COPY --from or --mount=...,from=.
	declaredDeps map[string]struct{}

	// TransitiveDeps accumulates the closure of reachable dependencies.
	// Populated by the closure engine; empty until then.
	TransitiveDeps map[string]struct{}

	// Explored marks that closure has already been computed for this stage.
	Explored bool

	// depOrder overrides the default sorted iteration order of AllDeps,
	// set by the optimizer when searching alternate closure orderings.
	depOrder []string
}

// New constructs a Stage from the raw (file, base image, alias) triple,
// splitting the base image into registry / image / version-tag parts.
func New(file, rawBase, alias string) *Stage {
	registry := ""
	base := rawBase
	if idx := strings.LastIndex(base, "/"); idx >= 0 {
		registry = base[:idx+1]
		base = base[idx+1:]
	}

	versionTag := ""
	if idx := strings.Index(base, ":"); idx >= 0 {
		versionTag = base[idx+1:]
		base = base[:idx]
	}

	return &Stage{
		FilePath:       file,
		Name:           alias,
		BaseImage:      base,
		Registry:       registry,
		VersionTag:     versionTag,
		declaredDeps:   make(map[string]struct{}),
		TransitiveDeps: make(map[string]struct{}),
	}
}

// RawBaseImage reconstructs the normalized base reference (no registry,
// version tag restored) as it would be followed as a dependency.
func (s *Stage) RawBaseImage() string {
	if s.VersionTag == "" {
		return s.BaseImage
	}
	return s.BaseImage + ":" + s.VersionTag
}

// AddDependency records a declared dependency reference. Non-string inputs
// are rejected by construction at the API boundary (dependency is always a
// string here); ErrInvalidInput guards against an empty value slipping in
// from a hostile caller.
func (s *Stage) AddDependency(dependency string) error {
	if dependency == "" {
		return fmt.Errorf("%w: got empty string", ErrInvalidInput)
	}
	s.declaredDeps[dependency] = struct{}{}
	return nil
}

// DeclaredDeps returns the stage's directly declared dependency names,
// not including the base image.
func (s *Stage) DeclaredDeps() []string {
	out := make([]string, 0, len(s.declaredDeps))
	for d := range s.declaredDeps {
		out = append(out, d)
	}
	slices.Sort(out)
	return out
}

// AllDeps returns declaredDeps ∪ TransitiveDeps ∪ {RawBaseImage()}, per
// spec's derived view. The base image, with its version tag (if any)
// restored, is always a member of the result.
func (s *Stage) AllDeps() map[string]struct{} {
	out := make(map[string]struct{}, len(s.declaredDeps)+len(s.TransitiveDeps)+1)
	for d := range s.declaredDeps {
		out[d] = struct{}{}
	}
	for d := range s.TransitiveDeps {
		out[d] = struct{}{}
	}
	out[s.RawBaseImage()] = struct{}{}
	return out
}

// AllDepsList is AllDeps rendered as a sorted slice, convenient for
// deterministic iteration in callers that don't need the set directly.
func (s *Stage) AllDepsList() []string {
	all := s.AllDeps()
	out := make([]string, 0, len(all))
	for d := range all {
		out = append(out, d)
	}
	slices.Sort(out)
	return out
}

// DepIterOrder returns the order in which the closure engine should walk
// this stage's dependencies. It defaults to AllDepsList's sorted order, but
// callers (the brute-force optimizer) may override it with SetDepIterOrder
// to search alternate orderings in the hope of shortening the resulting
// wave count.
func (s *Stage) DepIterOrder() []string {
	if s.depOrder != nil {
		return s.depOrder
	}
	return s.AllDepsList()
}

// SetDepIterOrder overrides the dependency-iteration order returned by
// DepIterOrder. Used exclusively by the optimizer to drive randomized
// re-closure attempts; the slice must contain exactly AllDeps()'s members.
func (s *Stage) SetDepIterOrder(order []string) {
	s.depOrder = order
}

// RemoveVersion rewrites any declaredDeps entry matching taggedRef to its
// bare name (prefix before ':'), and does the same to BaseImage/VersionTag
// if the tagged form names this stage's own base image. Called once a
// dependency of the form "name:tag" is confirmed to be a local stage, so
// that repeated references to the same stage converge on one bare name.
func (s *Stage) RemoveVersion(taggedRef string) {
	idx := strings.Index(taggedRef, ":")
	if idx < 0 {
		return
	}
	bare := taggedRef[:idx]

	if _, ok := s.declaredDeps[taggedRef]; ok {
		delete(s.declaredDeps, taggedRef)
		s.declaredDeps[bare] = struct{}{}
	}

	if s.RawBaseImage() == taggedRef {
		s.BaseImage = bare
		s.VersionTag = ""
	}
}

// Equal implements de-duplication equality at parse boundaries: two stages
// are equal iff they share file path, name, and base image.
func (s *Stage) Equal(other *Stage) bool {
	if other == nil {
		return false
	}
	return s.FilePath == other.FilePath && s.Name == other.Name && s.BaseImage == other.BaseImage
}

// Clone returns an independent deep copy of s, with Explored reset and
// TransitiveDeps emptied — used by the optimizer to hand each worker its
// own isolated stage record (spec.md §4.7/§9: "explicit clone operation").
func (s *Stage) Clone() *Stage {
	c := &Stage{
		FilePath:       s.FilePath,
		Name:           s.Name,
		BaseImage:      s.BaseImage,
		Registry:       s.Registry,
		VersionTag:     s.VersionTag,
		declaredDeps:   make(map[string]struct{}, len(s.declaredDeps)),
		TransitiveDeps: make(map[string]struct{}),
	}
	for d := range s.declaredDeps {
		c.declaredDeps[d] = struct{}{}
	}
	if s.depOrder != nil {
		c.depOrder = slices.Clone(s.depOrder)
	}
	return c
}

// String renders the stage for diagnostic display, mirroring the original
// tool's aligned "Stage: name   Dependencies: {...}" layout.
func (s *Stage) String() string {
	return fmt.Sprintf("%-40s deps=%v", "Stage: "+s.Name, s.AllDepsList())
}

// Set is an ordered collection of stages indexed by name, with duplicate
// detection performed at insertion time.
type Set struct {
	order  []string
	byName map[string]*Stage
}

// NewSet creates an empty stage set.
func NewSet() *Set {
	return &Set{byName: make(map[string]*Stage)}
}

// Add inserts a stage, returning ErrDuplicateStage if its name is already
// present. Duplicate stage names are fatal per spec.md §3's invariant.
func (s *Set) Add(st *Stage) error {
	if _, exists := s.byName[st.Name]; exists {
		return fmt.Errorf("%w: %q (defined in %s)", ErrDuplicateStage, st.Name, st.FilePath)
	}
	s.byName[st.Name] = st
	s.order = append(s.order, st.Name)
	return nil
}

// Get looks up a stage by name.
func (s *Set) Get(name string) (*Stage, bool) {
	st, ok := s.byName[name]
	return st, ok
}

// Has reports whether name is a known stage in this set.
func (s *Set) Has(name string) bool {
	_, ok := s.byName[name]
	return ok
}

// List returns all stages in insertion order.
func (s *Set) List() []*Stage {
	out := make([]*Stage, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.byName[name])
	}
	return out
}

// Len returns the number of stages in the set.
func (s *Set) Len() int {
	return len(s.order)
}

// Clone returns a deep, independent copy of the set: every Stage is cloned
// and the unresolved-state (Explored/TransitiveDeps) is reset, so a worker
// can mutate it freely without affecting the original or other workers.
func (s *Set) Clone() *Set {
	out := NewSet()
	for _, name := range s.order {
		// Add cannot fail here: names are already unique in s.
		_ = out.Add(s.byName[name].Clone())
	}
	return out
}
