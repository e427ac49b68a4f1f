// Package localimage resolves whether a tagged image reference actually
// names a locally defined build stage, so the closure engine can normalize
// it to the stage's bare name before following the edge.
package localimage

import (
	"strings"

	"github.com/wharflab/prebake/internal/stage"
)

// IsLocal reports whether ref is of the form "name:tag" where "name" names
// a stage in stages. Such references must be normalized (stage.RemoveVersion)
// before being followed, since the same logical stage may be referenced
// both bare and tagged across build files.
func IsLocal(ref string, stages *stage.Set) bool {
	idx := strings.Index(ref, ":")
	if idx < 0 {
		return false
	}
	return stages.Has(ref[:idx])
}

// StripTag returns ref with any ":tag" suffix removed. Safe to call on
// references that have no tag; returns ref unchanged in that case.
func StripTag(ref string) string {
	if idx := strings.Index(ref, ":"); idx >= 0 {
		return ref[:idx]
	}
	return ref
}
