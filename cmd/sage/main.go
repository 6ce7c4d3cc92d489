// sage writes research reports on a topic by interviewing a panel of
// generated analyst personas.
//
// Usage:
//
//	sage report [topic...] [--format=text|json|yaml]
//	sage serve [--addr=:8080]
//	sage version
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(newController).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
