// Copyright (c) 2025 Arc Engineering
// SPDX-License-Identifier: MIT

package fixup

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// fakeFormatter stands in for clang-format.
type fakeFormatter struct {
	output string // written to the file when non-empty
	err    error
	calls  int
}

func (f *fakeFormatter) Name() string { return "clang-format" }

func (f *fakeFormatter) Format(_ context.Context, path string) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	if f.output != "" {
		return os.WriteFile(path, []byte(f.output), 0o644)
	}
	return nil
}

func writeSource(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "main.c")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestApply(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		count    int
	}{
		{
			name:     "no occurrences",
			input:    "int main(){\n  return 0;\n}\n",
			expected: "int main(){\n  return 0;\n}\n",
			count:    0,
		},
		{
			name:     "if block",
			input:    "if (x) {\n  foo();\n}",
			expected: "if (x){\n  foo();\n}",
			count:    1,
		},
		{
			name:     "several on one line",
			input:    "f(a) { g(b) { h(c) {",
			expected: "f(a){ g(b){ h(c){",
			count:    3,
		},
		{
			name:     "inside string literal",
			input:    `puts(") {");`,
			expected: `puts("){");`,
			count:    1,
		},
		{
			name:     "two spaces untouched",
			input:    "if (x)  {",
			expected: "if (x)  {",
			count:    0,
		},
		{
			name:     "empty",
			input:    "",
			expected: "",
			count:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, n := Apply(tt.input, DefaultRules)
			if got != tt.expected {
				t.Errorf("Apply() = %q, want %q", got, tt.expected)
			}
			if n != tt.count {
				t.Errorf("count = %d, want %d", n, tt.count)
			}
			if strings.Contains(got, ") {") {
				t.Errorf("result still contains %q", ") {")
			}
		})
	}
}

func TestApplyIdempotent(t *testing.T) {
	input := "while (1) {\n  if (a) { b(); }\n}\n"
	once, _ := Apply(input, DefaultRules)
	twice, n := Apply(once, DefaultRules)
	if once != twice {
		t.Errorf("second pass changed output:\n%q\n%q", once, twice)
	}
	if n != 0 {
		t.Errorf("second pass made %d replacements", n)
	}
}

func TestApplyRuleOrder(t *testing.T) {
	rules := []Rule{{From: ") {", To: "){"}, {From: "){", To: ") => {"}, {From: "", To: "x"}}
	got, n := Apply("f() {", rules)
	if got != "f() => {" || n != 2 {
		t.Errorf("got %q (%d)", got, n)
	}
}

func TestRunEndToEnd(t *testing.T) {
	path := writeSource(t, "if (x) {\n  foo();\n}")
	var out bytes.Buffer
	f := &fakeFormatter{}
	fx := &Fixer{Formatter: f, Rules: DefaultRules, Out: &out}

	res, err := fx.Run(context.Background(), path)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := readFile(t, path); got != "if (x){\n  foo();\n}" {
		t.Errorf("content = %q", got)
	}
	if res.Replacements != 1 {
		t.Errorf("replacements = %d", res.Replacements)
	}
	want := "Formatted " + path + " using clang-format.\nReplaced\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestRunUsesFormatterOutput(t *testing.T) {
	path := writeSource(t, "void f(){x;}")
	f := &fakeFormatter{output: "void f() {\n  x;\n}\n"}
	fx := &Fixer{Formatter: f, Rules: DefaultRules}

	if _, err := fx.Run(context.Background(), path); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := readFile(t, path); got != "void f(){\n  x;\n}\n" {
		t.Errorf("content = %q", got)
	}
}

func TestRunFormatterFailureLeavesFile(t *testing.T) {
	const original = "if (x) {\n}\n"
	path := writeSource(t, original)
	var out bytes.Buffer
	ferr := &FormatterError{Argv: []string{"clang-format", "-i", path}, ExitCode: 1}
	fx := &Fixer{Formatter: &fakeFormatter{err: ferr}, Rules: DefaultRules, Out: &out}

	_, err := fx.Run(context.Background(), path)
	var got *FormatterError
	if !errors.As(err, &got) {
		t.Fatalf("expected *FormatterError, got %v", err)
	}
	if readFile(t, path) != original {
		t.Error("file was modified after formatter failure")
	}
	if out.Len() != 0 {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestRunMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.c")
	f := &fakeFormatter{}
	fx := &Fixer{Formatter: f, Rules: DefaultRules}

	_, err := fx.Run(context.Background(), path)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
	if f.calls != 0 {
		t.Error("formatter should not run for a missing file")
	}
	if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
		t.Error("missing file was created")
	}
}

func TestRunDirectory(t *testing.T) {
	fx := &Fixer{Formatter: &fakeFormatter{}, Rules: DefaultRules}
	_, err := fx.Run(context.Background(), t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "is a directory") {
		t.Fatalf("expected directory error, got %v", err)
	}
}

func TestRunPreservesMode(t *testing.T) {
	path := writeSource(t, "f() {}")
	if err := os.Chmod(path, 0o600); err != nil {
		t.Fatal(err)
	}
	fx := &Fixer{Formatter: &fakeFormatter{}, Rules: DefaultRules}
	if _, err := fx.Run(context.Background(), path); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v", info.Mode().Perm())
	}
}

func lookPath(t *testing.T, name string) string {
	t.Helper()
	p, err := exec.LookPath(name)
	if err != nil {
		t.Skipf("%s not available: %v", name, err)
	}
	return p
}

func TestExecFormatterSuccess(t *testing.T) {
	f := &ExecFormatter{Command: lookPath(t, "true"), Args: []string{"-i"}}
	if err := f.Format(context.Background(), "whatever.c"); err != nil {
		t.Fatalf("Format: %v", err)
	}
	if f.Name() != "true" {
		t.Errorf("Name() = %q", f.Name())
	}
}

func TestExecFormatterNonZeroExit(t *testing.T) {
	bin := lookPath(t, "false")
	f := &ExecFormatter{Command: bin, Args: []string{"-i"}}

	err := f.Format(context.Background(), "main.c")
	var ferr *FormatterError
	if !errors.As(err, &ferr) {
		t.Fatalf("expected *FormatterError, got %v", err)
	}
	if ferr.ExitCode != 1 {
		t.Errorf("exit code = %d", ferr.ExitCode)
	}
	want := []string{bin, "-i", "main.c"}
	if strings.Join(ferr.Argv, " ") != strings.Join(want, " ") {
		t.Errorf("argv = %v, want %v", ferr.Argv, want)
	}
	if !strings.Contains(ferr.Error(), "non-zero exit status 1") {
		t.Errorf("message = %q", ferr.Error())
	}
}

func TestExecFormatterMissingBinary(t *testing.T) {
	f := &ExecFormatter{Command: "bracefmt-no-such-formatter"}
	err := f.Format(context.Background(), "main.c")
	if err == nil {
		t.Fatal("expected error")
	}
	var ferr *FormatterError
	if errors.As(err, &ferr) {
		t.Fatal("missing binary must not be a FormatterError")
	}
	if !errors.Is(err, exec.ErrNotFound) {
		t.Errorf("expected exec.ErrNotFound, got %v", err)
	}
}

func TestRunInvalidUTF8(t *testing.T) {
	const original = "f() {\xff"
	path := writeSource(t, original)
	var out bytes.Buffer
	fx := &Fixer{Formatter: &fakeFormatter{}, Rules: DefaultRules, Out: &out}

	_, err := fx.Run(context.Background(), path)
	if err == nil || !strings.Contains(err.Error(), "invalid UTF-8") {
		t.Fatalf("expected invalid UTF-8 error, got %v", err)
	}
	if readFile(t, path) != original {
		t.Error("non-UTF-8 file was rewritten")
	}
	if strings.Contains(out.String(), "Replaced") {
		t.Errorf("output = %q", out.String())
	}
}
