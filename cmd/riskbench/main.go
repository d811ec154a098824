package main

import (
	"fmt"
	"os"
)

// Exit codes. Prediction inaccuracy is data, not a program failure: a run
// where the model misses every scenario still exits zero.
const (
	ExitSuccess = 0 // Run or comparison completed
	ExitError   = 2 // Configuration or runtime error
)

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(ExitError)
	}
}
