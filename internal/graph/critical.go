package graph

import (
	"github.com/planline/planline/internal/plan"
)

// Depths returns the critical-path depth of every task: a task with no
// dependencies has depth 1, otherwise depth is one more than the maximum
// depth among its dependencies. Unknown dependency references contribute
// nothing. Cycle members bottom out at depth 1 rather than recursing
// forever.
func Depths(tasks []plan.Task) map[string]int {
	byID := make(map[string]*plan.Task, len(tasks))
	for i := range tasks {
		byID[tasks[i].ID] = &tasks[i]
	}

	depths := make(map[string]int, len(tasks))
	visiting := make(map[string]bool)

	var depth func(id string) int
	depth = func(id string) int {
		if d, ok := depths[id]; ok {
			return d
		}
		if visiting[id] {
			return 0
		}
		visiting[id] = true

		max := 0
		for _, dep := range byID[id].DependsOn {
			if _, known := byID[dep]; !known {
				continue
			}
			if d := depth(dep); d > max {
				max = d
			}
		}

		visiting[id] = false
		depths[id] = max + 1
		return depths[id]
	}

	for i := range tasks {
		depth(tasks[i].ID)
	}
	return depths
}

// CriticalPathLength returns the maximum depth over all tasks, i.e. the
// length of the longest dependency chain. Zero for an empty task list.
func CriticalPathLength(tasks []plan.Task) int {
	max := 0
	for _, d := range Depths(tasks) {
		if d > max {
			max = d
		}
	}
	return max
}

// CriticalSet returns the ids of every task lying on a longest dependency
// chain, not only the tasks achieving the maximum depth. The deepest tasks
// are marked first, then each marked task's dependencies that sit exactly
// one level shallower are marked in turn, walking the chains back to their
// roots. Chain roots are included because they are the tasks whose early
// completion shortens the longest chain; a max-depth-only set would give
// critical-path strategies nothing to prioritize until the end of a run.
func CriticalSet(tasks []plan.Task) map[string]bool {
	depths := Depths(tasks)
	longest := 0
	for _, d := range depths {
		if d > longest {
			longest = d
		}
	}

	byID := make(map[string]*plan.Task, len(tasks))
	for i := range tasks {
		byID[tasks[i].ID] = &tasks[i]
	}

	critical := make(map[string]bool)

	var markChain func(id string)
	markChain = func(id string) {
		if critical[id] {
			return
		}
		critical[id] = true
		for _, dep := range byID[id].DependsOn {
			if _, known := byID[dep]; !known {
				continue
			}
			if depths[dep] == depths[id]-1 {
				markChain(dep)
			}
		}
	}

	for _, t := range tasks {
		if depths[t.ID] == longest {
			markChain(t.ID)
		}
	}
	return critical
}
