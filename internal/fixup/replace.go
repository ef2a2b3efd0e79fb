// Copyright (c) 2025 Arc Engineering
// SPDX-License-Identifier: MIT

package fixup

import "strings"

// Rule is a literal substitution. It ignores code structure entirely, so
// matches inside strings and comments are rewritten too.
type Rule struct {
	From string
	To   string
}

// DefaultRules joins a closing paren to the following brace.
var DefaultRules = []Rule{{From: ") {", To: "){"}}

// Apply runs rules over content in order and returns the rewritten text
// along with the total number of substitutions made.
func Apply(content string, rules []Rule) (string, int) {
	total := 0
	for _, r := range rules {
		if r.From == "" {
			continue
		}
		n := strings.Count(content, r.From)
		if n == 0 {
			continue
		}
		content = strings.ReplaceAll(content, r.From, r.To)
		total += n
	}
	return content, total
}
