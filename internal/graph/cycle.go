package graph

import (
	"github.com/planline/planline/internal/plan"
)

// DetectCycles runs a depth-first search over the dependency graph and
// returns the first cycle found as an id path whose first and last
// elements are equal, e.g. ["1.1", "1.2", "1.1"]. Returns nil when the
// graph is acyclic. Dependency references to unknown ids are ignored
// here; ValidateDependencies reports those separately.
func DetectCycles(tasks []plan.Task) []string {
	byID := make(map[string]*plan.Task, len(tasks))
	for i := range tasks {
		byID[tasks[i].ID] = &tasks[i]
	}

	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	parent := make(map[string]string)

	var cycle []string

	var visit func(id string) bool
	visit = func(id string) bool {
		visited[id] = true
		onStack[id] = true

		for _, dep := range byID[id].DependsOn {
			if _, known := byID[dep]; !known {
				continue
			}
			if onStack[dep] {
				// Back edge: reconstruct the path dep -> ... -> id -> dep.
				cycle = []string{dep}
				for at := id; at != dep; at = parent[at] {
					cycle = append(cycle, at)
				}
				cycle = append(cycle, dep)
				// Path was built tail-first; reverse into walk order.
				for i, j := 0, len(cycle)-1; i < j; i, j = i+1, j-1 {
					cycle[i], cycle[j] = cycle[j], cycle[i]
				}
				return true
			}
			if !visited[dep] {
				parent[dep] = id
				if visit(dep) {
					return true
				}
			}
		}

		onStack[id] = false
		return false
	}

	for i := range tasks {
		if !visited[tasks[i].ID] {
			if visit(tasks[i].ID) {
				return cycle
			}
		}
	}
	return nil
}

// CyclePath returns the cycle containing the given task id as an id path
// starting and ending on that id, or nil when the task is not part of any
// cycle. Detection prunes found cycles and repeats, so the right path is
// returned even when the graph holds several disjoint cycles.
func CyclePath(tasks []plan.Task, id string) []string {
	remaining := make([]plan.Task, len(tasks))
	copy(remaining, tasks)

	for {
		cycle := DetectCycles(remaining)
		if cycle == nil {
			return nil
		}

		members := make(map[string]bool, len(cycle))
		for _, m := range cycle {
			members[m] = true
		}

		if members[id] {
			// Rotate so the path starts at the requested id.
			uniq := cycle[:len(cycle)-1]
			start := 0
			for i, m := range uniq {
				if m == id {
					start = i
					break
				}
			}
			path := make([]string, 0, len(uniq)+1)
			path = append(path, uniq[start:]...)
			path = append(path, uniq[:start]...)
			return append(path, id)
		}

		pruned := remaining[:0]
		for _, t := range remaining {
			if !members[t.ID] {
				pruned = append(pruned, t)
			}
		}
		remaining = pruned
	}
}

// TasksInCycle returns the set of task ids that participate in any cycle.
// Detection runs repeatedly on the remaining graph until no cycle is
// found, so multiple disjoint cycles are all reported.
func TasksInCycle(tasks []plan.Task) map[string]bool {
	members := make(map[string]bool)

	remaining := make([]plan.Task, len(tasks))
	copy(remaining, tasks)

	for {
		cycle := DetectCycles(remaining)
		if cycle == nil {
			return members
		}
		for _, id := range cycle {
			members[id] = true
		}
		pruned := remaining[:0]
		for _, t := range remaining {
			if !members[t.ID] {
				pruned = append(pruned, t)
			}
		}
		remaining = pruned
	}
}
