package plan

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/planline/planline/internal/constraint"
)

var (
	// phaseHeaderRe matches "Phase N: Title" at any heading level.
	phaseHeaderRe = regexp.MustCompile(`^\s*#*\s*Phase\s+(\d+)\s*:\s*(.+?)\s*$`)

	// taskItemRe matches a list item whose first token is a dotted numeric
	// id, with an optional bullet and checkbox prefix.
	taskItemRe = regexp.MustCompile(`^\s*(?:[-*+]\s+)?(?:\[[ xX]\]\s+)?(\d+(?:\.\d+)+)\s+(.+?)\s*$`)
)

// Parse extracts phases, tasks and constraints from a plan document.
//
// Malformed elements are recorded in Document.Skipped and parsing
// continues; Parse only fails when the document yields no tasks at all.
// Every returned task has a non-empty id and exactly one owning phase,
// determined by its id's numeric prefix. Task order is document insertion
// order.
func Parse(text string) (*Document, error) {
	doc := &Document{
		Constraints: constraint.Parse(text),
	}

	seen := make(map[string]int) // id -> line, for duplicate detection
	phaseIdx := make(map[int]int)

	for lineNo, line := range strings.Split(text, "\n") {
		if m := phaseHeaderRe.FindStringSubmatch(line); m != nil {
			index, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			if _, dup := phaseIdx[index]; dup {
				doc.Skipped = append(doc.Skipped, StructuralError{
					Line:   lineNo + 1,
					Text:   strings.TrimSpace(line),
					Reason: fmt.Sprintf("duplicate phase %d", index),
				})
				continue
			}
			phaseIdx[index] = len(doc.Phases)
			doc.Phases = append(doc.Phases, Phase{Index: index, Name: m[2]})
			continue
		}

		m := taskItemRe.FindStringSubmatch(line)
		if m == nil {
			// Ordinary prose and non-task bullets are not errors.
			continue
		}

		id, description := m[1], m[2]
		if prev, dup := seen[id]; dup {
			doc.Skipped = append(doc.Skipped, StructuralError{
				Line:   lineNo + 1,
				Text:   strings.TrimSpace(line),
				Reason: fmt.Sprintf("duplicate task id %q (first seen on line %d)", id, prev),
			})
			continue
		}
		seen[id] = lineNo + 1

		doc.Tasks = append(doc.Tasks, Task{
			ID:          id,
			Phase:       PhaseOf(id),
			Description: description,
			DependsOn:   constraint.ParseDependencies(description),
		})
	}

	if len(doc.Tasks) == 0 {
		return nil, fmt.Errorf("plan document contains no tasks")
	}

	// Attach tasks to phases by numeric prefix. A task whose prefix names
	// a phase that never appeared gets a synthesized phase so the
	// one-owning-phase guarantee holds even for sparse documents.
	for i := range doc.Tasks {
		t := &doc.Tasks[i]
		idx, ok := phaseIdx[t.Phase]
		if !ok {
			phaseIdx[t.Phase] = len(doc.Phases)
			idx = len(doc.Phases)
			doc.Phases = append(doc.Phases, Phase{
				Index: t.Phase,
				Name:  fmt.Sprintf("Phase %d", t.Phase),
			})
		}
		doc.Phases[idx].TaskIDs = append(doc.Phases[idx].TaskIDs, t.ID)
	}

	return doc, nil
}
