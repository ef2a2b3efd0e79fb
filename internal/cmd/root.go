// Copyright (c) 2025 Arc Engineering
// SPDX-License-Identifier: MIT

package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/carlmjohnson/exitcode"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	"github.com/yourorg/bracefmt/internal/config"
	"github.com/yourorg/bracefmt/internal/fixup"
)

var log = commonlog.GetLogger("bracefmt.cmd")

var errorPrefix = color.New(color.FgRed, color.Bold)

// ReportedError is returned once its message has already been written to
// the user. main exits with its code without printing anything further.
type ReportedError struct {
	Code int
}

func (e *ReportedError) Error() string { return fmt.Sprintf("exit status %d", e.Code) }

// ExitCode is read by exitcode.Get in main.
func (e *ReportedError) ExitCode() int { return e.Code }

type rootOptions struct {
	configPath string
	formatter  string
	style      string
	strict     bool
	noColor    bool
	verbose    int
	logFile    string
}

// NewRootCmd creates the root command for bracefmt.
func NewRootCmd() *cobra.Command {
	var opts rootOptions

	cmd := &cobra.Command{
		Use:   "bracefmt <filename>",
		Short: "Run clang-format on a file and join ') {' into '){'",
		Long: `Format a single source file in place with clang-format, then rewrite
every literal ") {" in the result as "){".

The rewrite is purely textual: strings and comments are not special.
Failures are printed and the command still exits 0 unless --strict is set.

Configuration is optional and read from --config or $BRACEFMT_CONFIG
(YAML or TOML). Flags override values from the file.`,
		Example: `  bracefmt src/main.c
  bracefmt --style=file include/tensor.h
  bracefmt --config .bracefmt.yaml --strict src/trie.c
  bracefmt shell --all`,
		Args:          exactlyOneFile,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.noColor {
				color.NoColor = true
			}
			return configureLogging(opts.verbose, opts.logFile)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFormat(cmd, args[0], &opts)
		},
	}
	cmd.CompletionOptions.DisableDefaultCmd = true

	cmd.Flags().StringVar(&opts.configPath, "config", "", "Path to a YAML or TOML config file")
	cmd.Flags().StringVar(&opts.formatter, "formatter", "", "Formatter binary (default clang-format)")
	cmd.Flags().StringVar(&opts.style, "style", "", "Pass -style=<value> to the formatter")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Exit 1 when formatting or rewriting fails")
	cmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	cmd.PersistentFlags().CountVarP(&opts.verbose, "verbose", "v", "Increase log verbosity (repeatable)")
	cmd.PersistentFlags().StringVar(&opts.logFile, "log-file", "", "Write logs to this file instead of stderr")

	cmd.AddCommand(newShellCmd())

	return cmd
}

// exactlyOneFile prints the usage line itself so the message matches what
// scripts already expect, then fails with exit code 1.
func exactlyOneFile(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Usage: %s <filename>\n", cmd.Root().Name())
	return &ReportedError{Code: 1}
}

func runFormat(cmd *cobra.Command, path string, opts *rootOptions) error {
	cfg, err := config.Load(config.Resolve(opts.configPath))
	if err != nil {
		return exitcode.Set(err, 2)
	}
	if cmd.Flags().Changed("formatter") {
		cfg.Formatter = opts.formatter
	}
	if cmd.Flags().Changed("style") {
		cfg.Style = opts.style
	}
	if opts.strict {
		cfg.Strict = true
	}
	if err := cfg.Validate(); err != nil {
		return exitcode.Set(err, 2)
	}

	out := cmd.OutOrStdout()
	formatter := &fixup.ExecFormatter{
		Command: cfg.Formatter,
		Args:    cfg.FormatterArgs(),
		Stdout:  out,
		Stderr:  cmd.ErrOrStderr(),
	}
	fx := &fixup.Fixer{
		Formatter: formatter,
		Rules:     rulesFromConfig(cfg.Replacements),
		Out:       out,
	}

	res, err := fx.Run(cmd.Context(), path)
	if err == nil {
		log.Debugf("%s done, %d replacement(s)", res.Path, res.Replacements)
		return nil
	}

	reportFailure(out, formatter.Name(), err)
	if cfg.Strict {
		return &ReportedError{Code: 1}
	}
	return nil
}

// reportFailure prints the one-line diagnosis for a failed run.
func reportFailure(w io.Writer, formatter string, err error) {
	var ferr *fixup.FormatterError
	if errors.As(err, &ferr) {
		log.Infof("%s failed: %v", formatter, err)
		errorPrefix.Fprintf(w, "Error running %s:", formatter)
		fmt.Fprintf(w, " %v\n", err)
		return
	}
	log.Infof("run failed: %v", err)
	errorPrefix.Fprint(w, "An error occurred:")
	fmt.Fprintf(w, " %v\n", err)
}

func rulesFromConfig(reps []config.Replacement) []fixup.Rule {
	rules := make([]fixup.Rule, 0, len(reps))
	for _, r := range reps {
		rules = append(rules, fixup.Rule{From: r.From, To: r.To})
	}
	return rules
}
