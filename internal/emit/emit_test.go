package emit

import (
	"path/filepath"
	"testing"

	"github.com/wharflab/prebake/internal/stage"
)

func sampleWaves() [][]*stage.Stage {
	shared := stage.New("/x/Dockerfile", "ubuntu:24.04", "shared")
	use := stage.New("/y/Dockerfile", "shared", "use")
	return [][]*stage.Stage{{shared}, {use}}
}

func TestBuildOneTargetPerStageOnePerWave(t *testing.T) {
	waves := sampleWaves()
	crossover := map[string]struct{}{"shared": {}}

	targets, groups := Build(waves, crossover, "prebake", OutputOmit)

	if len(targets) != 2 {
		t.Fatalf("Build() targets = %v, want 2", targets)
	}
	if len(groups) != 2 {
		t.Fatalf("Build() groups = %v, want 2", groups)
	}
	if groups[0].Name != "group1" || groups[1].Name != "group2" {
		t.Errorf("Build() group names = %q, %q", groups[0].Name, groups[1].Name)
	}
}

func TestBuildTagsOnlyCrossoverStages(t *testing.T) {
	waves := sampleWaves()
	crossover := map[string]struct{}{"shared": {}}

	targets, _ := Build(waves, crossover, "prebake", OutputOmit)

	for _, tgt := range targets {
		if tgt.Name == "shared" {
			if len(tgt.Tags) != 1 || tgt.Tags[0] != "shared:prebake" {
				t.Errorf("shared target tags = %v, want [shared:prebake]", tgt.Tags)
			}
		} else if len(tgt.Tags) != 0 {
			t.Errorf("non-crossover target %q got tags %v, want none", tgt.Name, tgt.Tags)
		}
	}
}

func TestBuildOutputOnlySetForNonzeroModeAndCrossover(t *testing.T) {
	waves := sampleWaves()
	crossover := map[string]struct{}{"shared": {}}

	targets, _ := Build(waves, crossover, "prebake", OutputBoth)
	for _, tgt := range targets {
		if tgt.Name == "shared" {
			if len(tgt.Output) != 2 {
				t.Errorf("shared target output = %v, want 2 entries", tgt.Output)
			}
		} else if len(tgt.Output) != 0 {
			t.Errorf("non-crossover target %q got output %v, want none", tgt.Name, tgt.Output)
		}
	}
}

func TestJSONWriterWritesFile(t *testing.T) {
	waves := sampleWaves()
	targets, groups := Build(waves, map[string]struct{}{"shared": {}}, "prebake", OutputOmit)

	path := filepath.Join(t.TempDir(), "docker-bake.json")
	if err := (JSONWriter{}).Write(path, targets, groups); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
}

func TestHCLWriterWritesFile(t *testing.T) {
	waves := sampleWaves()
	targets, groups := Build(waves, map[string]struct{}{"shared": {}}, "prebake", OutputOmit)

	path := filepath.Join(t.TempDir(), "docker-bake.hcl")
	if err := (HCLWriter{}).Write(path, targets, groups); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
}
