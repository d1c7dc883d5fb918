// Command newsreport searches a news site for a phrase, collects the matching
// articles of the last months into an Excel report and keeps a history of
// every run.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
