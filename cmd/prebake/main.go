// Command prebake generates a docker buildx bake plan from a tree of
// multi-stage container build files.
package main

import (
	"fmt"
	"os"

	"github.com/wharflab/prebake/cmd/prebake/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
