package closure

import (
	"testing"
	"time"

	"github.com/wharflab/prebake/internal/stage"
)

func buildSet(t *testing.T, stages ...*stage.Stage) *stage.Set {
	t.Helper()
	set := stage.NewSet()
	for _, s := range stages {
		if err := set.Add(s); err != nil {
			t.Fatal(err)
		}
	}
	return set
}

func TestRunLinearChainPropagatesTransitiveDeps(t *testing.T) {
	a := stage.New("/x/Dockerfile", "fedora:43", "a")
	b := stage.New("/x/Dockerfile", "a", "b")
	c := stage.New("/x/Dockerfile", "b", "c")
	set := buildSet(t, a, b, c)

	unresolved := Run(set)

	if !unresolved.Has("fedora:43") {
		t.Errorf("expected fedora:43 unresolved, got %v", unresolved)
	}
	if _, ok := c.TransitiveDeps["a"]; !ok {
		t.Errorf("expected c to transitively depend on a, got %v", c.TransitiveDeps)
	}
	if _, ok := c.TransitiveDeps["fedora:43"]; !ok {
		t.Errorf("expected c to transitively depend on fedora:43, got %v", c.TransitiveDeps)
	}
}

func TestRunNormalizesLocalVersionTag(t *testing.T) {
	base := stage.New("/x/Dockerfile", "fedora:43", "base")
	child := stage.New("/x/Dockerfile", "base:prebake", "child")
	_ = child.AddDependency("base:prebake")
	set := buildSet(t, base, child)

	Run(set)

	for dep := range child.AllDeps() {
		if dep == "base:prebake" {
			t.Errorf("expected base:prebake normalized away, got deps %v", child.AllDeps())
		}
	}
	if _, ok := child.AllDeps()["base"]; !ok {
		t.Errorf("expected normalized dependency \"base\" present, got %v", child.AllDeps())
	}
}

func TestRunSkipsAlreadyExploredStages(t *testing.T) {
	a := stage.New("/x/Dockerfile", "fedora:43", "a")
	a.Explored = true
	a.TransitiveDeps["sentinel"] = struct{}{}
	b := stage.New("/x/Dockerfile", "a", "b")
	set := buildSet(t, a, b)

	Run(set)

	if _, ok := b.TransitiveDeps["sentinel"]; !ok {
		t.Errorf("expected b to inherit already-explored a's transitive deps directly, got %v", b.TransitiveDeps)
	}
}

func TestRunTerminatesOnCycle(t *testing.T) {
	a := stage.New("/x/Dockerfile", "b", "a")
	b := stage.New("/x/Dockerfile", "a", "b")
	set := buildSet(t, a, b)

	done := make(chan struct{})
	go func() {
		Run(set)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not terminate on a cyclic stage graph")
	}
}

func TestRunDiamondMergesBothBranches(t *testing.T) {
	top := stage.New("/x/Dockerfile", "fedora:43", "top")
	left := stage.New("/x/Dockerfile", "top", "left")
	right := stage.New("/x/Dockerfile", "top", "right")
	bot := stage.New("/x/Dockerfile", "left", "bot")
	_ = bot.AddDependency("right")
	set := buildSet(t, top, left, right, bot)

	Run(set)

	deps := bot.AllDeps()
	for _, want := range []string{"top", "left", "right", "fedora:43"} {
		if _, ok := deps[want]; !ok {
			t.Errorf("expected bot to depend on %q, got %v", want, deps)
		}
	}
}
