// Copyright (c) 2025 Arc Engineering
// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/carlmjohnson/exitcode"

	"github.com/yourorg/bracefmt/internal/cmd"
)

func main() {
	root := cmd.NewRootCmd()
	err := root.Execute()

	var reported *cmd.ReportedError
	if err != nil && !errors.As(err, &reported) {
		fmt.Fprintf(os.Stderr, "bracefmt: %v\n", err)
	}
	os.Exit(exitcode.Get(err))
}
