package conflict

import (
	"strings"

	"github.com/planline/planline/internal/plan"
)

// FileConflict records a file referenced by two or more tasks.
type FileConflict struct {
	// File is the referenced path, in the casing it was first seen.
	File string `json:"file"`

	// TaskIDs lists the tasks that reference the file, in encounter order.
	TaskIDs []string `json:"task_ids"`
}

// DetectFileConflicts scans every task description for file references and
// returns one conflict per file mentioned by at least two tasks. Matching
// is case-insensitive; output order follows first encounter.
func DetectFileConflicts(tasks []plan.Task) []FileConflict {
	byFile := make(map[string][]string)
	casing := make(map[string]string)
	var order []string

	for _, t := range tasks {
		for _, file := range ExtractFileReferences(t.Description) {
			key := strings.ToLower(file)
			if _, ok := byFile[key]; !ok {
				order = append(order, key)
				casing[key] = file
			}
			byFile[key] = append(byFile[key], t.ID)
		}
	}

	var conflicts []FileConflict
	for _, key := range order {
		ids := byFile[key]
		if len(ids) < 2 {
			continue
		}
		conflicts = append(conflicts, FileConflict{
			File:    casing[key],
			TaskIDs: ids,
		})
	}
	return conflicts
}

// Among filters conflicts down to those with at least two member tasks
// inside the given batch, trimming each conflict's TaskIDs to batch
// members.
func Among(conflicts []FileConflict, ids map[string]bool) []FileConflict {
	var within []FileConflict
	for _, c := range conflicts {
		var members []string
		for _, id := range c.TaskIDs {
			if ids[id] {
				members = append(members, id)
			}
		}
		if len(members) >= 2 {
			within = append(within, FileConflict{File: c.File, TaskIDs: members})
		}
	}
	return within
}
