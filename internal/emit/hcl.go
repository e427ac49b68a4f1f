package emit

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"
)

// HCLWriter renders targets and groups as a docker-bake.hcl file using
// hclwrite, matching the block shapes Docker Bake expects: one `target`
// block per stage, one `group` block per wave.
type HCLWriter struct{}

// Write implements Writer.
func (HCLWriter) Write(path string, targets []Target, groups []Group) error {
	f := hclwrite.NewFile()
	root := f.Body()

	for _, t := range targets {
		block := root.AppendNewBlock("target", []string{t.Name})
		body := block.Body()
		body.SetAttributeValue("dockerfile", cty.StringVal(t.Dockerfile))
		body.SetAttributeValue("target", cty.StringVal(t.TargetRef))
		body.SetAttributeValue("args", cty.ObjectVal(map[string]cty.Value{
			"BASE_IMAGE": cty.StringVal(t.BaseImage),
		}))
		if len(t.Tags) > 0 {
			body.SetAttributeValue("tags", cty.ListVal(stringsToCty(t.Tags)))
		}
		if len(t.Output) > 0 {
			body.SetAttributeValue("output", cty.ListVal(stringsToCty(t.Output)))
		}
		body.SetAttributeValue("cache-to", cty.ListValEmpty(cty.String))
		body.SetAttributeValue("cache-from", cty.ListValEmpty(cty.String))
		root.AppendNewline()
	}

	for _, g := range groups {
		block := root.AppendNewBlock("group", []string{g.Name})
		block.Body().SetAttributeValue("targets", cty.ListVal(stringsToCty(g.Targets)))
		root.AppendNewline()
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrIO, path, err)
	}
	defer out.Close()

	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrIO, path, err)
	}
	return nil
}

func stringsToCty(in []string) []cty.Value {
	out := make([]cty.Value, len(in))
	for i, s := range in {
		out[i] = cty.StringVal(s)
	}
	return out
}
