package conflict

import (
	"regexp"
	"strings"
)

// Extraction layers, in priority order. Backticked spans win over bare
// prefixed paths, which win over verb-object and "in <file>" phrases.
var (
	backtickRe     = regexp.MustCompile("`([^`]+)`")
	prefixedPathRe = regexp.MustCompile(`\b((?:src|tests?|docs|scripts|lib|internal|cmd|pkg)/[\w./-]+)`)
	verbObjectRe   = regexp.MustCompile(`(?i)\b(?:modif(?:y|ies|ied|ying)|updat(?:e|es|ed|ing)|edit(?:s|ed|ing)?)\s+([\w-]+(?:/[\w.-]+)*\.\w+)`)
	inObjectRe     = regexp.MustCompile(`(?i)\bin\s+([\w-]+(?:/[\w.-]+)*\.\w+)`)
	fileShapedRe   = regexp.MustCompile(`^[\w.-]+\.\w+$`)
)

// ExtractFileReferences pulls likely file paths out of a task description.
// Results are deduplicated case-insensitively, first casing wins, and
// trailing punctuation is stripped. Backticked spans only count when they
// contain no spaces and either contain a slash or look like a bare
// filename.
func ExtractFileReferences(description string) []string {
	var files []string
	seen := make(map[string]bool)

	add := func(candidate string) {
		candidate = strings.Trim(candidate, ".,;:!?")
		if candidate == "" {
			return
		}
		key := strings.ToLower(candidate)
		if seen[key] {
			return
		}
		seen[key] = true
		files = append(files, candidate)
	}

	for _, m := range backtickRe.FindAllStringSubmatch(description, -1) {
		candidate := m[1]
		if strings.ContainsAny(candidate, " \t") {
			continue
		}
		if strings.Contains(candidate, "/") || fileShapedRe.MatchString(candidate) {
			add(candidate)
		}
	}
	for _, m := range prefixedPathRe.FindAllStringSubmatch(description, -1) {
		add(m[1])
	}
	for _, m := range verbObjectRe.FindAllStringSubmatch(description, -1) {
		add(m[1])
	}
	for _, m := range inObjectRe.FindAllStringSubmatch(description, -1) {
		add(m[1])
	}

	return files
}
