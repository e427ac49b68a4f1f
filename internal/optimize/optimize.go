// Package optimize searches for a shorter wave sequence by re-running the
// closure, sort, and group pipeline many times, each time shuffling every
// stage's dependency-iteration order with a fresh random permutation, and
// keeping the attempt with the fewest waves.
package optimize

import (
	"math/rand"
	"runtime"
	"sync"

	"github.com/wharflab/prebake/internal/closure"
	"github.com/wharflab/prebake/internal/stage"
	"github.com/wharflab/prebake/internal/topo"
	"github.com/wharflab/prebake/internal/wave"
)

// Result reports the outcome of a run: the best (fewest-wave) attempt found,
// plus the baseline, best, and worst wave counts for diagnostic reporting.
type Result struct {
	Best          wave.Result
	BaselineCount int
	BestCount     int
	WorstCount    int
	Attempts      int
}

// Cores returns the worker pool size for a requested core count: 0 means
// auto (all but one detected processor), and any request is capped at
// runtime.NumCPU()-1 regardless of what was asked for, leaving one core
// free.
func Cores(requested int) int {
	max := runtime.NumCPU() - 1
	if max < 1 {
		max = 1
	}
	if requested <= 0 {
		return max
	}
	if requested > max {
		return max
	}
	return requested
}

// Run executes budget independent attempts against clones of stages,
// distributed across a worker pool capped by Cores(cores), and returns the
// attempt with the fewest waves alongside baseline/best/worst counts. A
// budget of 0 disables optimization: baseline is returned unchanged and no
// clones or goroutines are created. stages is never mutated.
func Run(stages *stage.Set, baseline wave.Result, budget, cores int) Result {
	if budget <= 0 {
		return Result{
			Best:          baseline,
			BaselineCount: len(baseline.Waves),
			BestCount:     len(baseline.Waves),
			WorstCount:    len(baseline.Waves),
		}
	}

	workers := Cores(cores)
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	attempts := make([]wave.Result, budget)

	for i := 0; i < budget; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			attempts[i] = attempt(stages)
		}(i)
	}
	wg.Wait()

	best := baseline
	bestCount := len(baseline.Waves)
	worstCount := len(baseline.Waves)

	for _, a := range attempts {
		if n := len(a.Waves); n < bestCount {
			best = a
			bestCount = n
		}
		if n := len(a.Waves); n > worstCount {
			worstCount = n
		}
	}

	return Result{
		Best:          best,
		BaselineCount: len(baseline.Waves),
		BestCount:     bestCount,
		WorstCount:    worstCount,
		Attempts:      budget,
	}
}

// attempt runs one closure→sort→group pass on an independent clone of
// stages with every stage's dependency-iteration order freshly shuffled.
// A cycle or missing-dependency error here means the shuffled order broke
// an invariant the baseline pass upheld, which cannot happen for a valid
// DAG; such an attempt is discarded by reporting it as unimprovable rather
// than propagating the error, since a parallel worker has no caller to
// report it to mid-run.
func attempt(stages *stage.Set) wave.Result {
	clone := stages.Clone()
	rng := rand.New(rand.NewSource(rand.Int63()))

	for _, s := range clone.List() {
		order := s.AllDepsList()
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		s.SetDepIterOrder(order)
	}

	unresolved := closure.Run(clone)
	ordered, err := topo.Sort(clone, unresolved)
	if err != nil {
		return wave.Result{Waves: make([][]*stage.Stage, len(clone.List())+1)}
	}

	return wave.Group(ordered, unresolved)
}
