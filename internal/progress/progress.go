// Package progress renders verbose run output: discovery counts, crossover
// stages, unresolved references, wave counts, and optimizer statistics.
// Grounded on the teacher's internal/reporter text formatter, trimmed to
// the plain sequential narration a build-planning run needs (no source
// snippets, no syntax highlighting — there are no violations to annotate).
package progress

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var useColors = termenv.EnvColorProfile() != termenv.Ascii

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	warnStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	okStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
)

// Reporter writes progress narration for a single run. Holds no
// package-level mutable state; construct one per invocation and thread it
// through internal/plan explicitly.
type Reporter struct {
	w       io.Writer
	verbose bool
	color   bool
}

// New returns a Reporter writing to w. Warnings are always printed;
// discovery/wave/optimizer narration only prints when verbose is true.
func New(w io.Writer, verbose bool) *Reporter {
	return &Reporter{w: w, verbose: verbose, color: useColors}
}

func (r *Reporter) render(s lipgloss.Style, text string) string {
	if !r.color {
		return text
	}
	return s.Render(text)
}

// Discovered reports how many build files were found.
func (r *Reporter) Discovered(n int) {
	if !r.verbose {
		return
	}
	fmt.Fprintln(r.w, r.render(headerStyle, fmt.Sprintf("discovered %d build file(s)", n)))
}

// Crossover reports the stages referenced from a build file other than the
// one that defines them.
func (r *Reporter) Crossover(names []string) {
	if !r.verbose || len(names) == 0 {
		return
	}
	fmt.Fprintln(r.w, r.render(dimStyle, fmt.Sprintf("crossover stages: %v", names)))
}

// Unresolved warns about dependency names that matched no known stage.
// These are treated as external base images, never fatal.
func (r *Reporter) Unresolved(names []string) {
	if len(names) == 0 {
		return
	}
	fmt.Fprintln(r.w, r.render(warnStyle, fmt.Sprintf("warning: unresolved external reference(s): %v", names)))
}

// WaveWarnings surfaces names the wave grouper could not classify as seen,
// satisfied, or unresolved — a sign of an upstream inconsistency.
func (r *Reporter) WaveWarnings(warnings []string) {
	for _, w := range warnings {
		fmt.Fprintln(r.w, r.render(warnStyle, "warning: unexpected dependency reference: "+w))
	}
}

// Waves reports the final wave count after optimization.
func (r *Reporter) Waves(n int) {
	if !r.verbose {
		return
	}
	fmt.Fprintln(r.w, r.render(headerStyle, fmt.Sprintf("grouped into %d wave(s)", n)))
}

// Optimized reports the optimizer's baseline/best/worst wave counts and how
// many attempts it ran. A zero attempts count means optimization was
// disabled and baseline was kept as-is.
func (r *Reporter) Optimized(baseline, best, worst, attempts int) {
	if !r.verbose || attempts == 0 {
		return
	}
	fmt.Fprintln(r.w, r.render(dimStyle, fmt.Sprintf(
		"optimizer: %d attempt(s), waves baseline=%d best=%d worst=%d", attempts, baseline, best, worst)))
}

// Done reports the final output path.
func (r *Reporter) Done(path string) {
	fmt.Fprintln(r.w, r.render(okStyle, "wrote plan to "+path))
}
