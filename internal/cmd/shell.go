// Copyright (c) 2025 Arc Engineering
// SPDX-License-Identifier: MIT

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

const rcStart = "# >>> bracefmt completions >>>"
const rcEnd = "# <<< bracefmt completions <<<"

// completionTarget knows where one shell keeps completions for bracefmt and
// how to source them from the shell's rc file. rcPath is nil for shells
// that pick completions up without rc changes; rcLines receives the
// installed completion path.
type completionTarget struct {
	shell   string
	path    func() string
	gen     func(root *cobra.Command, w io.Writer) error
	rcPath  func() string
	rcLines func(path string) string
}

var completionTargets = []completionTarget{
	{
		shell:  "bash",
		path:   func() string { return filepath.Join(configHome(), "bash", "completions", "bracefmt.bash") },
		gen:    func(root *cobra.Command, w io.Writer) error { return root.GenBashCompletionV2(w, true) },
		rcPath: bashRCPath,
		rcLines: func(path string) string {
			q := shellQuote(path)
			return "if [ -f " + q + " ]; then\n  . " + q + "\nfi"
		},
	},
	{
		shell:  "zsh",
		path:   func() string { return filepath.Join(homeDir(), ".zsh", "completions", "_bracefmt") },
		gen:    func(root *cobra.Command, w io.Writer) error { return root.GenZshCompletion(w) },
		rcPath: func() string { return filepath.Join(homeDir(), ".zshrc") },
		rcLines: func(path string) string {
			return "fpath+=(" + shellQuote(filepath.Dir(path)) + ")\nautoload -Uz compinit\ncompinit"
		},
	},
	{
		shell: "fish",
		path:  func() string { return filepath.Join(configHome(), "fish", "completions", "bracefmt.fish") },
		gen:   func(root *cobra.Command, w io.Writer) error { return root.GenFishCompletion(w, true) },
	},
	{
		shell: "powershell",
		path:  func() string { return filepath.Join(configHome(), "powershell", "bracefmt.ps1") },
		gen:   func(root *cobra.Command, w io.Writer) error { return root.GenPowerShellCompletionWithDesc(w) },
	},
}

type shellStatus struct {
	shell     string
	written   bool
	skipped   bool
	rcWritten bool
	rcSkipped bool
	rcRemoved bool
	reason    string
}

func newShellCmd() *cobra.Command {
	selected := map[string]*bool{}
	var force, writeRC, uninstallRC, all bool

	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Install shell completions for bracefmt",
		Long: `Install completion scripts for bash, zsh, fish, and PowerShell.
By default the shell is detected from the SHELL environment variable.

Running it again is safe: existing completion files are kept unless --force
is given, and the rc block is added only once.`,
		Example: `  bracefmt shell
  bracefmt shell --all
  bracefmt shell --bash --zsh --write-rc
  bracefmt shell --uninstall-rc`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			shells := chosenShells(selected, all)
			root := cmd.Root()

			var statuses []shellStatus
			for _, t := range completionTargets {
				if !shells[t.shell] {
					continue
				}
				status := shellStatus{shell: t.shell}
				if err := installCompletion(&status, root, t, force); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s completion: %v\n", t.shell, err)
				}
				if t.rcPath != nil {
					switch {
					case uninstallRC:
						if err := removeRCBlock(t.rcPath()); err != nil {
							fmt.Fprintf(cmd.ErrOrStderr(), "remove %s RC: %v\n", t.shell, err)
						} else {
							status.rcRemoved = true
						}
					case writeRC:
						if err := ensureShellRC(&status, t); err != nil {
							fmt.Fprintf(cmd.ErrOrStderr(), "%s RC: %v\n", t.shell, err)
						}
					}
				}
				statuses = append(statuses, status)
			}

			reportShellStatus(cmd.OutOrStdout(), statuses)
			return nil
		},
	}

	for _, t := range completionTargets {
		selected[t.shell] = cmd.Flags().Bool(t.shell, false, "Install "+t.shell+" completion")
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing completion files")
	cmd.Flags().BoolVar(&writeRC, "write-rc", false, "Add an idempotent block to the shell rc file")
	cmd.Flags().BoolVar(&uninstallRC, "uninstall-rc", false, "Remove the rc block added by --write-rc")
	cmd.Flags().BoolVar(&all, "all", false, "Install completions for every supported shell")

	return cmd
}

func chosenShells(selected map[string]*bool, all bool) map[string]bool {
	shells := map[string]bool{}
	for name, on := range selected {
		if *on || all {
			shells[name] = true
		}
	}
	if len(shells) > 0 {
		return shells
	}
	if sh := detectShell(); sh != "" {
		shells[sh] = true
		return shells
	}
	shells["bash"], shells["zsh"] = true, true
	return shells
}

func installCompletion(status *shellStatus, root *cobra.Command, t completionTarget, force bool) error {
	path := t.path()
	if !force {
		if _, err := os.Stat(path); err == nil {
			status.skipped = true
			status.reason = "completion file already exists (use --force to overwrite)"
			return nil
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := t.gen(root, f); err != nil {
		return err
	}
	status.written = true
	return nil
}

func ensureShellRC(status *shellStatus, t completionTarget) error {
	path := t.rcPath()
	if data, err := os.ReadFile(path); err == nil {
		content := string(data)
		if strings.Contains(content, rcStart) && strings.Contains(content, rcEnd) {
			status.rcSkipped = true
			return nil
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteString("\n" + rcStart + "\n" + t.rcLines(t.path()) + "\n" + rcEnd + "\n"); err != nil {
		return err
	}
	status.rcWritten = true
	return nil
}

// removeRCBlock cuts the marker block out of path. A missing rc file or a
// file without the block is left alone.
func removeRCBlock(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	content := string(data)
	before, rest, found := strings.Cut(content, rcStart)
	if !found {
		return nil
	}
	_, after, found := strings.Cut(rest, rcEnd)
	if !found {
		return nil
	}

	trimmed := strings.TrimRight(before, "\n") + "\n" + strings.TrimLeft(after, "\n")
	if strings.TrimSpace(trimmed) == "" {
		trimmed = ""
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(trimmed), info.Mode().Perm())
}

func reportShellStatus(w io.Writer, statuses []shellStatus) {
	if len(statuses) == 0 {
		return
	}

	fmt.Fprintln(w, "=== Shell Completions Status ===")
	for _, s := range statuses {
		fmt.Fprintf(w, "%s:\n", strings.ToUpper(s.shell))

		switch {
		case s.written:
			fmt.Fprintln(w, "  Completions: INSTALLED")
		case s.skipped:
			fmt.Fprintf(w, "  Completions: SKIPPED (%s)\n", s.reason)
		default:
			fmt.Fprintln(w, "  Completions: FAILED")
		}

		switch {
		case s.rcRemoved:
			fmt.Fprintln(w, "  RC block: REMOVED")
		case s.rcWritten:
			fmt.Fprintln(w, "  RC block: ADDED")
		case s.rcSkipped:
			fmt.Fprintln(w, "  RC block: SKIPPED (already present)")
		}
	}
	fmt.Fprintln(w, "Restart your shell if completions do not show up.")
}

func detectShell() string {
	sh := strings.ToLower(os.Getenv("SHELL"))
	for _, name := range []string{"zsh", "bash", "fish", "powershell"} {
		if strings.Contains(sh, name) {
			return name
		}
	}
	return ""
}

// shellQuote single-quotes s for POSIX shells.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func homeDir() string {
	home, _ := os.UserHomeDir()
	return home
}

func configHome() string {
	if base := os.Getenv("XDG_CONFIG_HOME"); base != "" {
		return base
	}
	return filepath.Join(homeDir(), ".config")
}

func bashRCPath() string {
	rc := filepath.Join(homeDir(), ".bashrc")
	if _, err := os.Stat(rc); errors.Is(err, os.ErrNotExist) {
		return filepath.Join(homeDir(), ".bash_profile")
	}
	return rc
}
