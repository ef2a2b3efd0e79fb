// Copyright (c) 2025 Arc Engineering
// SPDX-License-Identifier: MIT

package cmd

import (
	"os"

	"github.com/tliron/commonlog"
	"github.com/tliron/commonlog/simple"
)

// configureLogging installs an unbuffered simple backend so nothing is lost
// when main calls os.Exit. Logs go to stderr or logFile, never stdout.
func configureLogging(verbosity int, logFile string) error {
	backend := simple.NewBackend()
	backend.Buffered = false

	var path *string
	if logFile != "" {
		// The backend exits the process on open failure; check first.
		f, err := os.OpenFile(logFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
		if err != nil {
			return err
		}
		f.Close()
		path = &logFile
	}

	backend.Configure(verbosity, path)
	commonlog.SetBackend(backend)
	return nil
}
