// Command macroext runs macros against registered extension sets, lists
// the available extension functions, and generates compile-time bindings.
package main

import (
	"fmt"
	"os"
)

// Version can be set at build time using: -ldflags "-X main.Version=v1.2.3"
var Version = "dev"

func main() {
	root := NewRootCommand(Version)
	if err := root.Execute(); err != nil {
		st := newStyles(os.Stderr)
		fmt.Fprintln(os.Stderr, st.errorf("error: %v", err))
		os.Exit(1)
	}
}
