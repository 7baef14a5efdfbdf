package schedule

import (
	"github.com/planline/planline/internal/graph"
	"github.com/planline/planline/internal/plan"
)

// Ready returns every task eligible to start right now, in id order. A
// task is ready when all of the following hold:
//
//   - its status is pending
//   - it is not a member of a dependency cycle
//   - its phase is eligible (all earlier phases complete, or phase
//     ordering is waived by a parallel declaration)
//   - every dependency is completed
//   - no sequential group it belongs to blocks it
func Ready(doc *plan.Document, statusByID map[string]plan.Status) []plan.Task {
	inCycle := graph.TasksInCycle(doc.Tasks)
	eligible := eligiblePhases(doc, statusByID)

	var ready []plan.Task
	for _, t := range doc.Tasks {
		if statusByID[t.ID] != plan.StatusPending {
			continue
		}
		if inCycle[t.ID] {
			continue
		}
		if !eligible[t.Phase] {
			continue
		}
		if !graph.DependenciesSatisfied(t.DependsOn, statusByID) {
			continue
		}
		if blockedBySequentialGroup(doc, t.ID, statusByID) {
			continue
		}
		ready = append(ready, t)
	}

	plan.SortByID(ready)
	return ready
}

// blockedBySequentialGroup reports whether any sequential group containing
// the task forbids it from starting. A group blocks when another member is
// in progress, or when an earlier member (by id order) has not reached a
// terminal state. Failed earlier members therefore block until retried or
// skipped; skipped members are out of the way.
func blockedBySequentialGroup(doc *plan.Document, taskID string, statusByID map[string]plan.Status) bool {
	for _, g := range doc.Constraints.GroupsFor(taskID) {
		for _, member := range g.TaskIDs {
			if member == taskID {
				continue
			}
			st := statusByID[member]
			if st == plan.StatusInProgress {
				return true
			}
			if plan.CompareIDs(member, taskID) < 0 && !st.IsTerminal() {
				return true
			}
		}
	}
	return false
}

// eligiblePhases computes the set of phase indices whose tasks may be
// scheduled. The base rule requires every lower-indexed phase to be
// complete; parallel declarations then propagate eligibility to declared
// peers until a fixed point.
func eligiblePhases(doc *plan.Document, statusByID map[string]plan.Status) map[int]bool {
	eligible := make(map[int]bool, len(doc.Phases))

	for _, p := range doc.Phases {
		ok := true
		for _, q := range doc.Phases {
			if q.Index < p.Index && !phaseComplete(&q, statusByID) {
				ok = false
				break
			}
		}
		eligible[p.Index] = ok
	}

	for changed := true; changed; {
		changed = false
		for _, p := range doc.Phases {
			if !eligible[p.Index] {
				continue
			}
			for _, peer := range doc.Constraints.ParallelPeers(p.Index) {
				if !eligible[peer] {
					eligible[peer] = true
					changed = true
				}
			}
		}
	}

	return eligible
}

// phaseComplete reports whether every task in the phase has reached a
// terminal state.
func phaseComplete(p *plan.Phase, statusByID map[string]plan.Status) bool {
	for _, id := range p.TaskIDs {
		if !statusByID[id].IsTerminal() {
			return false
		}
	}
	return true
}
