package emit

import (
	"encoding/json"
	"fmt"
	"os"
)

// jsonTarget mirrors the per-target shape Docker Bake's JSON format expects.
// Omitempty keeps tags/output out of targets that aren't crossover stages.
type jsonTarget struct {
	Dockerfile string            `json:"dockerfile"`
	Target     string            `json:"target"`
	Args       map[string]string `json:"args"`
	Tags       []string          `json:"tags,omitempty"`
	Output     []string          `json:"output,omitempty"`
	CacheTo    []string          `json:"cache-to"`
	CacheFrom  []string          `json:"cache-from"`
}

type jsonGroup struct {
	Targets []string `json:"targets"`
}

type jsonBake struct {
	Target map[string]jsonTarget `json:"target"`
	Group  map[string]jsonGroup  `json:"group"`
}

// JSONWriter renders targets and groups as the docker-bake.json structure:
// a "target" map keyed by stage name and a "group" map keyed by group name.
type JSONWriter struct{}

// Write implements Writer.
func (JSONWriter) Write(path string, targets []Target, groups []Group) error {
	bake := jsonBake{
		Target: make(map[string]jsonTarget, len(targets)),
		Group:  make(map[string]jsonGroup, len(groups)),
	}

	for _, t := range targets {
		bake.Target[t.Name] = jsonTarget{
			Dockerfile: t.Dockerfile,
			Target:     t.TargetRef,
			Args:       map[string]string{"BASE_IMAGE": t.BaseImage},
			Tags:       t.Tags,
			Output:     t.Output,
			CacheTo:    []string{},
			CacheFrom:  []string{},
		}
	}

	for _, g := range groups {
		bake.Group[g.Name] = jsonGroup{Targets: g.Targets}
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrIO, path, err)
	}
	defer out.Close()

	enc := json.NewEncoder(out)
	enc.SetIndent("", "    ")
	if err := enc.Encode(bake); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrIO, path, err)
	}
	return nil
}
