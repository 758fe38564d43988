// Command feesctl runs maintenance tasks against the fee ledger store.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(&cli{}).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
