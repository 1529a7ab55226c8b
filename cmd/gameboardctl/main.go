// Command gameboardctl seeds a gameboard database and queries statistics,
// trophies, bracket scores and player profiles from the terminal.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
