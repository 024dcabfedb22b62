// Command salescast runs the sales forecast pipeline on a CSV file from the
// command line: upload, column mapping, analysis, and dashboard or chart output.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
