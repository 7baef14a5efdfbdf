package constraint

import (
	"regexp"
	"strings"
)

// dependsRe matches the word "depends" case-insensitively inside
// parentheses, with an optional "on" and colon, capturing the id list.
var dependsRe = regexp.MustCompile(`(?i)\(\s*depends(?:\s+on)?\s*:?\s*([^)]*)\)`)

// ParseDependencies extracts inline dependency references from a task
// description, e.g. "(depends: 1.1, 1.2)" yields ["1.1", "1.2"].
//
// Accepted tokens are two- or three-segment dotted numeric ids. A single
// malformed token anywhere in the list voids the entire extraction and
// nil is returned. That all-or-nothing behavior is a compatibility
// contract with the original annotation grammar and must not be relaxed
// into silent per-token filtering.
func ParseDependencies(description string) []string {
	m := dependsRe.FindStringSubmatch(description)
	if m == nil {
		return nil
	}

	var ids []string
	for _, token := range strings.Split(m[1], ",") {
		token = strings.TrimSpace(token)
		if !taskIDRe.MatchString(token) {
			return nil
		}
		ids = append(ids, token)
	}
	return ids
}
