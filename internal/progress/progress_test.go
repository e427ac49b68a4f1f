package progress

import (
	"bytes"
	"strings"
	"testing"
)

func TestReporterSilentWhenNotVerbose(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, false)

	r.Discovered(3)
	r.Crossover([]string{"shared"})
	r.Waves(2)
	r.Optimized(4, 2, 4, 10)

	if buf.Len() != 0 {
		t.Errorf("expected no output when not verbose, got %q", buf.String())
	}
}

func TestReporterVerboseNarratesRun(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, true)

	r.Discovered(2)
	r.Crossover([]string{"shared"})
	r.Waves(3)
	r.Optimized(5, 3, 5, 20)

	out := buf.String()
	for _, want := range []string{
		"discovered 2 build file(s)",
		"crossover stages",
		"shared",
		"grouped into 3 wave(s)",
		"20 attempt(s)",
		"baseline=5 best=3 worst=5",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q, got:\n%s", want, out)
		}
	}
}

func TestReporterUnresolvedAlwaysPrintsEvenWhenQuiet(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, false)

	r.Unresolved([]string{"python:3.12"})

	out := buf.String()
	if !strings.Contains(out, "python:3.12") {
		t.Errorf("expected unresolved warning despite non-verbose mode, got %q", out)
	}
}

func TestReporterUnresolvedNoopWhenEmpty(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, true)

	r.Unresolved(nil)

	if buf.Len() != 0 {
		t.Errorf("expected no output for empty unresolved set, got %q", buf.String())
	}
}

func TestReporterWaveWarningsAlwaysPrint(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, false)

	r.WaveWarnings([]string{"ghost-stage"})

	if !strings.Contains(buf.String(), "ghost-stage") {
		t.Errorf("expected wave warning regardless of verbosity, got %q", buf.String())
	}
}

func TestReporterOptimizedNoopWhenDisabled(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, true)

	r.Optimized(3, 3, 3, 0)

	if buf.Len() != 0 {
		t.Errorf("expected no optimizer narration when attempts is 0, got %q", buf.String())
	}
}

func TestReporterDoneAlwaysPrints(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, false)

	r.Done("./docker.hcl")

	if !strings.Contains(buf.String(), "./docker.hcl") {
		t.Errorf("expected Done to report output path regardless of verbosity, got %q", buf.String())
	}
}
