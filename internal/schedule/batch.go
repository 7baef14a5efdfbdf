package schedule

import (
	"github.com/planline/planline/internal/conflict"
	"github.com/planline/planline/internal/graph"
	"github.com/planline/planline/internal/plan"
)

// Batch is the scheduler's dispatch recommendation: which tasks to start
// next, annotated with any file contention among them and parallel-group
// membership.
type Batch struct {
	// Tasks selected for dispatch, in id order.
	Tasks []plan.Task `json:"tasks"`

	// Conflicts lists files referenced by two or more tasks in this batch.
	// A conflict is advisory; callers decide whether to serialize.
	Conflicts []conflict.FileConflict `json:"conflicts,omitempty"`

	// ParallelGroups maps each selected task id to the index of the first
	// parallel declaration covering its phase, for tasks running under a
	// phase-ordering waiver.
	ParallelGroups map[string]int `json:"parallel_groups,omitempty"`
}

// NextBatch computes the ready set, applies the strategy, and annotates
// the selection with conflicts and parallel-group metadata.
func NextBatch(doc *plan.Document, statusByID map[string]plan.Status, strat Strategy, maxParallel int) Batch {
	ready := Ready(doc, statusByID)
	ctx := Context{Critical: graph.CriticalSet(doc.Tasks)}

	selected := strat.SelectTasks(ready, maxParallel, ctx)

	ids := make(map[string]bool, len(selected))
	for _, t := range selected {
		ids[t.ID] = true
	}

	batch := Batch{
		Tasks:     selected,
		Conflicts: conflict.Among(conflict.DetectFileConflicts(doc.Tasks), ids),
	}

	for _, t := range selected {
		for i, p := range doc.Constraints.Parallel {
			if p.Contains(t.Phase) {
				if batch.ParallelGroups == nil {
					batch.ParallelGroups = make(map[string]int)
				}
				batch.ParallelGroups[t.ID] = i
				break
			}
		}
	}

	return batch
}
