package main

import (
	"errors"
	"fmt"
	"os"
)

// errReported is returned by commands whose failure was already printed.
var errReported = errors.New("command failed")

func main() {
	Execute()
}

// fatal exits at once. Only call it before any store is opened; afterwards
// return an error from RunE so deferred Close calls run.
func fatal(msg string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	os.Exit(1)
}
