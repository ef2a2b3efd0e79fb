// Copyright (c) 2025 Arc Engineering
// SPDX-License-Identifier: MIT

package fixup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strings"
)

// Formatter rewrites a file in place.
type Formatter interface {
	// Name is the tool name shown in messages.
	Name() string
	Format(ctx context.Context, path string) error
}

// FormatterError reports a formatter that ran but did not exit cleanly.
type FormatterError struct {
	Argv     []string
	ExitCode int
	Err      *exec.ExitError
}

func (e *FormatterError) Error() string {
	cmd := strings.Join(e.Argv, " ")
	if e.ExitCode < 0 && e.Err != nil {
		return fmt.Sprintf("command %q terminated: %v", cmd, e.Err)
	}
	return fmt.Sprintf("command %q returned non-zero exit status %d", cmd, e.ExitCode)
}

func (e *FormatterError) Unwrap() error {
	if e.Err == nil {
		return nil
	}
	return e.Err
}

// ExecFormatter runs an external formatter as `Command Args... <path>`.
type ExecFormatter struct {
	Command string
	Args    []string

	// Stdout and Stderr receive the formatter's own output. Nil discards it.
	Stdout io.Writer
	Stderr io.Writer
}

// Name returns the base name of the formatter binary.
func (f *ExecFormatter) Name() string {
	return filepath.Base(f.Command)
}

// Format runs the formatter and blocks until it exits. A non-zero exit is
// returned as *FormatterError; failing to start it at all (missing binary,
// permission denied) is returned as a plain wrapped error.
func (f *ExecFormatter) Format(ctx context.Context, path string) error {
	args := make([]string, 0, len(f.Args)+1)
	args = append(args, f.Args...)
	args = append(args, path)

	log.Debugf("exec %s %s", f.Command, strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, f.Command, args...)
	cmd.Stdout = f.Stdout
	cmd.Stderr = f.Stderr

	err := cmd.Run()
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &FormatterError{
			Argv:     append([]string{f.Command}, args...),
			ExitCode: exitErr.ExitCode(),
			Err:      exitErr,
		}
	}
	return fmt.Errorf("run %s: %w", f.Command, err)
}
