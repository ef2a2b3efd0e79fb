// Copyright (c) 2025 Arc Engineering
// SPDX-License-Identifier: MIT

// Package fixup formats a source file with an external tool and then applies
// literal rewrites to the result.
package fixup

import (
	"context"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("bracefmt.fixup")

// Result describes a completed run.
type Result struct {
	Path         string
	Replacements int
}

// Fixer formats one file and rewrites it.
type Fixer struct {
	Formatter Formatter
	Rules     []Rule

	// Out receives the progress lines. Nil discards them.
	Out io.Writer
}

// Run formats path in place, then applies the rules and writes the file back.
//
// If the formatter fails the file is left exactly as the formatter left it
// and no rewrite is attempted. There is no rollback: an error after the
// formatter succeeded leaves the formatted but unrewritten file on disk.
func (fx *Fixer) Run(ctx context.Context, path string) (Result, error) {
	out := fx.Out
	if out == nil {
		out = io.Discard
	}

	info, err := os.Stat(path)
	if err != nil {
		return Result{}, err
	}
	if info.IsDir() {
		return Result{}, fmt.Errorf("%s: is a directory", path)
	}

	if err := fx.Formatter.Format(ctx, path); err != nil {
		return Result{}, err
	}
	fmt.Fprintf(out, "Formatted %s using %s.\n", path, fx.Formatter.Name())

	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, err
	}
	if !utf8.Valid(data) {
		return Result{}, fmt.Errorf("%s: invalid UTF-8", path)
	}

	updated, n := Apply(string(data), fx.Rules)
	log.Infof("%s: %d replacement(s)", path, n)

	if err := os.WriteFile(path, []byte(updated), info.Mode().Perm()); err != nil {
		return Result{}, err
	}
	fmt.Fprintln(out, "Replaced")

	return Result{Path: path, Replacements: n}, nil
}
