package store

import (
	"time"

	"github.com/planline/planline/internal/plan"
)

// TaskRecord is the persisted execution state of one task.
type TaskRecord struct {
	ID          string      `json:"id"`
	Phase       int         `json:"phase"`
	Description string      `json:"description"`
	Status      plan.Status `json:"status"`

	// StartedAt is set when the task enters in_progress and cleared on
	// retry.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// CompletedAt is set when the task reaches completed or failed.
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// RetryCount is the number of times the task has been returned to
	// pending after a failure.
	RetryCount int `json:"retry_count,omitempty"`

	// FindingsPath optionally points at an artifact recorded on
	// completion.
	FindingsPath string `json:"findings_path,omitempty"`

	// LastError holds the most recent failure reason.
	LastError string `json:"last_error,omitempty"`
}

// Summary tallies task statuses. It is recomputed from the task records
// on every write, never incremented in place.
type Summary struct {
	TotalTasks int `json:"total_tasks"`
	Completed  int `json:"completed"`
	Pending    int `json:"pending"`
	InProgress int `json:"in_progress"`
	Failed     int `json:"failed"`
	Skipped    int `json:"skipped"`
}

// Run records one execution session: which tasks completed or failed
// between BeginRun and EndRun. Runs are append-only history.
type Run struct {
	ID        string     `json:"id"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	Completed []string   `json:"completed,omitempty"`
	Failed    []string   `json:"failed,omitempty"`
}

// State is the full persisted document.
type State struct {
	PlanID string `json:"plan_id"`

	// Tasks keyed by id; Order preserves document order for rendering.
	Tasks map[string]*TaskRecord `json:"tasks"`
	Order []string               `json:"order"`

	Summary Summary `json:"summary"`
	Runs    []Run   `json:"runs,omitempty"`

	// RecoveredFromBackup is set when the primary file was unreadable and
	// state was restored from the shadow backup.
	RecoveredFromBackup bool `json:"recovered_from_backup,omitempty"`

	// Rebuilt is set when both files were unreadable and state was
	// reconstructed from the plan document with all tasks pending.
	Rebuilt bool `json:"rebuilt,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// record returns the task record for id, or nil.
func (s *State) record(id string) *TaskRecord {
	return s.Tasks[id]
}

// openRun returns the most recent run if it has not ended, else nil.
func (s *State) openRun() *Run {
	if len(s.Runs) == 0 {
		return nil
	}
	r := &s.Runs[len(s.Runs)-1]
	if r.EndedAt != nil {
		return nil
	}
	return r
}

// StatusByID flattens the state into the status map the scheduler
// consumes.
func (s *State) StatusByID() map[string]plan.Status {
	m := make(map[string]plan.Status, len(s.Tasks))
	for id, rec := range s.Tasks {
		m[id] = rec.Status
	}
	return m
}

func newState(planID string, doc *plan.Document) *State {
	st := &State{
		PlanID:    planID,
		Tasks:     make(map[string]*TaskRecord, len(doc.Tasks)),
		UpdatedAt: time.Now().UTC(),
	}
	for _, t := range doc.Tasks {
		st.Tasks[t.ID] = &TaskRecord{
			ID:          t.ID,
			Phase:       t.Phase,
			Description: t.Description,
			Status:      plan.StatusPending,
		}
		st.Order = append(st.Order, t.ID)
	}
	st.Summary = tally(st)
	return st
}

// tally recomputes the summary from the task records.
func tally(s *State) Summary {
	sum := Summary{TotalTasks: len(s.Tasks)}
	for _, rec := range s.Tasks {
		switch rec.Status {
		case plan.StatusCompleted:
			sum.Completed++
		case plan.StatusInProgress:
			sum.InProgress++
		case plan.StatusFailed:
			sum.Failed++
		case plan.StatusSkipped:
			sum.Skipped++
		default:
			sum.Pending++
		}
	}
	return sum
}
