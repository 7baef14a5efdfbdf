package plan

import (
	"strconv"
	"strings"

	"github.com/planline/planline/internal/constraint"
)

// Status represents the execution state of a task.
type Status string

const (
	// StatusPending indicates the task has not started.
	StatusPending Status = "pending"

	// StatusInProgress indicates the task is actively being worked on.
	StatusInProgress Status = "in_progress"

	// StatusCompleted indicates the task finished successfully.
	StatusCompleted Status = "completed"

	// StatusFailed indicates the task failed. Failed tasks may be retried,
	// which returns them to pending.
	StatusFailed Status = "failed"

	// StatusSkipped indicates the task was explicitly skipped.
	StatusSkipped Status = "skipped"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// IsValid returns true if this is a recognized status value.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusFailed, StatusSkipped:
		return true
	default:
		return false
	}
}

// IsTerminal returns true if this status represents a final state.
// Failed is not terminal: failed tasks remain retry-eligible.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusSkipped
}

// CanTransition reports whether the state machine permits moving from s
// to next. Skip is allowed from any state; retry (failed -> pending) is
// permitted here and rate-limited by the store's retry ceiling.
func (s Status) CanTransition(next Status) bool {
	if next == StatusSkipped {
		return true
	}
	switch s {
	case StatusPending:
		return next == StatusInProgress
	case StatusInProgress:
		return next == StatusCompleted || next == StatusFailed
	case StatusFailed:
		return next == StatusPending
	default:
		return false
	}
}

// Task is the smallest trackable unit of work in a plan.
//
// Tasks are structural: they carry no mutable execution state. The store
// package owns status, timestamps and retry counts.
type Task struct {
	// ID is the dotted numeric identifier, e.g. "1.2" or "1.2.3".
	// Unique within a plan; the first segment names the owning phase.
	ID string `json:"id"`

	// Phase is the numeric index of the owning phase.
	Phase int `json:"phase"`

	// Description is the free-text body of the task list item.
	Description string `json:"description"`

	// DependsOn lists task ids extracted from inline "(depends: ...)"
	// references in the description.
	DependsOn []string `json:"depends_on"`
}

// Phase is an ordered grouping of tasks and the default sequencing unit.
type Phase struct {
	// Index is the numeric phase index from the "Phase N:" header.
	Index int `json:"index"`

	// Name is the phase title.
	Name string `json:"name"`

	// TaskIDs lists the ids of tasks owned by this phase, in document order.
	TaskIDs []string `json:"task_ids"`
}

// StructuralError records a malformed document element that was skipped
// during parsing. Structural errors are never fatal.
type StructuralError struct {
	// Line is the 1-based line number of the offending element.
	Line int `json:"line"`

	// Text is the offending line, trimmed.
	Text string `json:"text"`

	// Reason explains why the element was skipped.
	Reason string `json:"reason"`
}

func (e StructuralError) Error() string {
	return "line " + strconv.Itoa(e.Line) + ": " + e.Reason
}

// Document is the parsed, immutable representation of a plan document.
type Document struct {
	// Phases in document order.
	Phases []Phase `json:"phases"`

	// Tasks in document insertion order.
	Tasks []Task `json:"tasks"`

	// Constraints holds the parsed [SEQUENTIAL] and [PARALLEL] annotations.
	Constraints *constraint.Set `json:"constraints"`

	// Skipped records malformed elements encountered during parsing.
	Skipped []StructuralError `json:"skipped,omitempty"`
}

// Task returns the task with the given id, or nil if not found.
func (d *Document) Task(id string) *Task {
	for i := range d.Tasks {
		if d.Tasks[i].ID == id {
			return &d.Tasks[i]
		}
	}
	return nil
}

// TaskIDs returns the set of all task ids in the document.
func (d *Document) TaskIDs() map[string]bool {
	ids := make(map[string]bool, len(d.Tasks))
	for _, t := range d.Tasks {
		ids[t.ID] = true
	}
	return ids
}

// PhaseByIndex returns the phase with the given index, or nil if not found.
func (d *Document) PhaseByIndex(index int) *Phase {
	for i := range d.Phases {
		if d.Phases[i].Index == index {
			return &d.Phases[i]
		}
	}
	return nil
}

// CompareIDs orders two dotted numeric ids segment by segment. Each
// segment is compared numerically, so "1.10" sorts after "1.9". A shorter
// id that is a prefix of a longer one sorts first. Non-numeric segments
// fall back to string comparison.
func CompareIDs(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		an, aerr := strconv.Atoi(as[i])
		bn, berr := strconv.Atoi(bs[i])
		if aerr == nil && berr == nil {
			if an != bn {
				if an < bn {
					return -1
				}
				return 1
			}
			continue
		}
		if c := strings.Compare(as[i], bs[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(as) < len(bs):
		return -1
	case len(as) > len(bs):
		return 1
	default:
		return 0
	}
}

// SortByID sorts tasks in place by id using CompareIDs. Used everywhere a
// deterministic ordering is required.
func SortByID(tasks []Task) {
	for i := 1; i < len(tasks); i++ {
		key := tasks[i]
		j := i - 1
		for j >= 0 && CompareIDs(tasks[j].ID, key.ID) > 0 {
			tasks[j+1] = tasks[j]
			j--
		}
		tasks[j+1] = key
	}
}

// SortIDs sorts a slice of task ids in place using CompareIDs.
func SortIDs(ids []string) {
	for i := 1; i < len(ids); i++ {
		key := ids[i]
		j := i - 1
		for j >= 0 && CompareIDs(ids[j], key) > 0 {
			ids[j+1] = ids[j]
			j--
		}
		ids[j+1] = key
	}
}

// PhaseOf returns the owning phase index for a task id: its first numeric
// segment. Returns -1 for ids with a non-numeric first segment.
func PhaseOf(id string) int {
	head, _, _ := strings.Cut(id, ".")
	n, err := strconv.Atoi(head)
	if err != nil {
		return -1
	}
	return n
}
