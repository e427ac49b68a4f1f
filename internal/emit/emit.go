// Package emit serializes a planned set of waves into a Docker Bake file,
// in either HCL or JSON form.
package emit

import (
	"errors"
	"fmt"

	"github.com/wharflab/prebake/internal/stage"
)

// ErrIO is returned when a Writer cannot create or write its output file.
var ErrIO = errors.New("emit: write failed")

// Mode selects which serialization the Writer produces.
type Mode int

const (
	// HCL writes a docker-bake.hcl-style file via hclwrite.
	HCL Mode = iota
	// JSON writes the equivalent docker-bake.json structure.
	JSON
)

// OutputDirective selects which `output` entries crossover targets receive.
type OutputDirective int

const (
	// OutputOmit emits no output directive (mode 0).
	OutputOmit OutputDirective = iota
	// OutputRegistry emits `type=registry` (mode 1).
	OutputRegistry
	// OutputLocal emits `type=docker` (mode 2).
	OutputLocal
	// OutputBoth emits both `type=registry` and `type=docker` (mode 3).
	OutputBoth
)

// Target is one bake-file target entry, derived from a single stage.
type Target struct {
	Name       string
	Dockerfile string
	TargetRef  string
	BaseImage  string
	Tags       []string
	Output     []string
}

// Group is one bake-file group entry: a named, ordered list of target names
// that may be built concurrently.
type Group struct {
	Name    string
	Targets []string
}

// outputStrings renders an OutputDirective into the literal `type=...`
// strings the bake file expects.
func outputStrings(mode OutputDirective) []string {
	switch mode {
	case OutputRegistry:
		return []string{"type=registry"}
	case OutputLocal:
		return []string{"type=docker"}
	case OutputBoth:
		return []string{"type=registry", "type=docker"}
	default:
		return nil
	}
}

// Build derives the Target and Group lists from waves, applying tag only to
// stages named in crossover, and output only to crossover stages when mode
// is nonzero. Each stage contributes exactly one target even if it could be
// reached from more than one wave in memory.
func Build(waves [][]*stage.Stage, crossover map[string]struct{}, tag string, mode OutputDirective) ([]Target, []Group) {
	var targets []Target
	written := make(map[string]struct{})
	outputs := outputStrings(mode)

	groups := make([]Group, 0, len(waves))

	for idx, wave := range waves {
		names := make([]string, 0, len(wave))
		for _, s := range wave {
			names = append(names, s.Name)
			if _, ok := written[s.Name]; ok {
				continue
			}
			written[s.Name] = struct{}{}

			t := Target{
				Name:       s.Name,
				Dockerfile: s.FilePath,
				TargetRef:  s.Name,
				BaseImage:  s.BaseImage,
			}
			if _, isCrossover := crossover[s.Name]; isCrossover {
				t.Tags = []string{fmt.Sprintf("%s:%s", s.Name, tag)}
				if mode != OutputOmit {
					t.Output = outputs
				}
			}
			targets = append(targets, t)
		}

		groups = append(groups, Group{
			Name:    fmt.Sprintf("group%d", idx+1),
			Targets: names,
		})
	}

	return targets, groups
}

// Writer writes a set of targets and groups to an output destination in
// its serialization format.
type Writer interface {
	Write(path string, targets []Target, groups []Group) error
}
