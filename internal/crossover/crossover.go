// Package crossover detects stages that are referenced from a build file
// other than the one that defines them. Crossover stages need a
// registry-visible tag so downstream build files can resolve them; the
// detector itself only reports names, it never mutates stage records.
package crossover

import (
	"strings"

	"github.com/wharflab/prebake/internal/stage"
)

// Reference is one raw dependency reference as it appeared in a build
// file, before version normalization. File is the build file the
// reference was found in (not necessarily the stage's defining file).
type Reference struct {
	File string
	Name string
}

// Detect returns the set of stage names referenced from a build file other
// than the one that defines them. refs should include every FROM base
// image, COPY --from, and --mount=...,from= reference found while parsing
// all build files, tagged with the file it was found in.
func Detect(stages *stage.Set, refs []Reference) map[string]struct{} {
	crossover := make(map[string]struct{})

	for _, ref := range refs {
		name := ref.Name
		if idx := strings.Index(name, ":"); idx >= 0 {
			name = name[:idx]
		}

		st, ok := stages.Get(name)
		if !ok {
			continue
		}
		if st.FilePath != ref.File {
			crossover[st.Name] = struct{}{}
		}
	}

	return crossover
}
