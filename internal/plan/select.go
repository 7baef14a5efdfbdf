package plan

import (
	"fmt"
	"strconv"
	"strings"
)

// Select resolves a task selector against a document. Supported forms:
//
//   - "all" — every task in the document
//   - "phase:N" — every task owned by phase N
//   - a comma- or space-separated id list — exactly those tasks
//
// Unknown ids in a list are an error; selection never silently truncates.
func Select(doc *Document, selector string) ([]Task, error) {
	selector = strings.TrimSpace(selector)
	if selector == "" || selector == "all" {
		tasks := make([]Task, len(doc.Tasks))
		copy(tasks, doc.Tasks)
		return tasks, nil
	}

	if rest, ok := strings.CutPrefix(selector, "phase:"); ok {
		index, err := strconv.Atoi(strings.TrimSpace(rest))
		if err != nil {
			return nil, fmt.Errorf("invalid phase selector %q", selector)
		}
		var tasks []Task
		for _, t := range doc.Tasks {
			if t.Phase == index {
				tasks = append(tasks, t)
			}
		}
		if len(tasks) == 0 {
			return nil, fmt.Errorf("phase %d has no tasks", index)
		}
		return tasks, nil
	}

	var tasks []Task
	var missing []string
	for _, id := range strings.FieldsFunc(selector, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	}) {
		if t := doc.Task(id); t != nil {
			tasks = append(tasks, *t)
		} else {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("unknown task ids: %s", strings.Join(missing, ", "))
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("selector %q matched no tasks", selector)
	}
	return tasks, nil
}
