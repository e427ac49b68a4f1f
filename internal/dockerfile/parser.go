// Package dockerfile parses a build file with BuildKit's own Dockerfile
// grammar and extracts the stage/dependency information prebake's core
// needs: one stage.Stage per FROM ... AS block plus the raw references
// crossover detection needs (COPY --from, RUN --mount=...,from=).
package dockerfile

import (
	"bytes"
	"context"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/moby/buildkit/frontend/dockerfile/instructions"
	"github.com/moby/buildkit/frontend/dockerfile/parser"

	"github.com/wharflab/prebake/internal/crossover"
	"github.com/wharflab/prebake/internal/stage"
)

// ParseResult contains the parsed build file information.
type ParseResult struct {
	// AST is the parsed build file AST from BuildKit.
	AST *parser.Result
	// Stages is BuildKit's own parsed stage list, in file order.
	Stages []instructions.Stage
	// MetaArgs is the list of ARG instructions appearing before the first
	// FROM.
	MetaArgs []instructions.ArgCommand
}

// openDockerfile opens a build file path for reading.
// If path is "-", returns os.Stdin and a no-op closer.
// Otherwise, opens the file and returns it with its Close method.
func openDockerfile(path string) (io.Reader, func() error, error) {
	if path == "-" {
		return os.Stdin, func() error { return nil }, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

// ParseFile parses a build file and returns the parse result.
func ParseFile(_ context.Context, path string) (*ParseResult, error) {
	r, closer, err := openDockerfile(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = closer() }()

	return Parse(r)
}

// Parse parses a build file from a reader.
func Parse(r io.Reader) (*ParseResult, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	ast, err := parser.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}

	stages, metaArgs, err := instructions.Parse(ast.AST, nil)
	if err != nil {
		return nil, err
	}

	return &ParseResult{
		AST:      ast,
		Stages:   stages,
		MetaArgs: metaArgs,
	}, nil
}

// ExtractStages converts one file's BuildKit stage list into stage.Stage
// records plus the raw dependency references crossover detection needs.
// A stage with no `AS alias` is given a synthetic numeric alias matching
// its position, mirroring BuildKit's own `COPY --from=<index>` convention
// for anonymous stages.
func ExtractStages(file string, bkStages []instructions.Stage) ([]*stage.Stage, []crossover.Reference) {
	out := make([]*stage.Stage, 0, len(bkStages))
	var refs []crossover.Reference

	// BuildKit lowercases stage aliases but keeps FROM and --from=
	// references as written; lowercase a reference's name part (its tag is
	// kept) so that "FROM A" matches the stage declared "AS A".
	norm := func(ref string) string {
		if idx := strings.LastIndex(ref, ":"); idx > strings.LastIndex(ref, "/") {
			return strings.ToLower(ref[:idx]) + ref[idx:]
		}
		return strings.ToLower(ref)
	}

	for i, bk := range bkStages {
		alias := bk.Name
		if alias == "" {
			alias = strconv.Itoa(i)
		}

		s := stage.New(file, norm(bk.BaseName), alias)
		refs = append(refs, crossover.Reference{File: file, Name: s.RawBaseImage()})

		for _, cmd := range bk.Commands {
			switch c := cmd.(type) {
			case *instructions.CopyCommand:
				if c.From != "" {
					from := norm(c.From)
					_ = s.AddDependency(from)
					refs = append(refs, crossover.Reference{File: file, Name: from})
				}
			case *instructions.RunCommand:
				for _, m := range mountsFrom(c) {
					if m.From != "" {
						from := norm(m.From)
						_ = s.AddDependency(from)
						refs = append(refs, crossover.Reference{File: file, Name: from})
					}
				}
			}
		}

		out = append(out, s)
	}

	return out, refs
}

// identityExpand leaves ARG/ENV references in mount options untouched,
// which is fine here: prebake only reads the from= target, never the
// mount's other option values.
func identityExpand(word string) (string, error) {
	return word, nil
}

// mountsFrom eagerly parses a RUN command's --mount options. BuildKit
// defers mount parsing until RunCommand.Expand runs with some expander;
// GetMounts returns nothing until then.
func mountsFrom(run *instructions.RunCommand) []*instructions.Mount {
	mounts := instructions.GetMounts(run)
	if len(mounts) > 0 {
		return mounts
	}
	_ = run.Expand(identityExpand)
	return instructions.GetMounts(run)
}
