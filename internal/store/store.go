package store

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/planline/planline/internal/graph"
	"github.com/planline/planline/internal/logging"
	"github.com/planline/planline/internal/plan"
)

const (
	stateFileName  = "status.json"
	backupFileName = "status.json.bak"
	lockFileName   = "status.lock"

	// writeAttempts bounds retries of the persist step on transient I/O
	// errors.
	writeAttempts = 3
)

// Defaults applied when Options fields are zero.
const (
	DefaultMaxRetries = 3
	DefaultStaleAfter = 30 * time.Minute
)

// Options configures a Store.
type Options struct {
	// PlanID names the plan this state belongs to.
	PlanID string

	// MaxRetries is the retry ceiling per task.
	MaxRetries int

	// StaleAfter is how long a task may sit in_progress before SweepStuck
	// fails it.
	StaleAfter time.Duration

	Logger *logging.Logger
}

// Store is a persistent status store for one plan. All mutations are
// serialized through an in-process mutex plus an advisory file lock, so
// both goroutines and separate processes sharing the state directory are
// safe.
type Store struct {
	dir        string
	doc        *plan.Document
	planID     string
	maxRetries int
	staleAfter time.Duration
	log        *logging.Logger

	// inCycle is computed once at Open; Start refuses cycle members
	// outright.
	inCycle map[string]bool

	mu sync.Mutex
}

// Open prepares a store rooted at dir for the given plan document,
// creating the directory and an initial all-pending state file if absent.
func Open(dir string, doc *plan.Document, opts Options) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating state dir: %w", err)
	}

	if opts.PlanID == "" {
		opts.PlanID = "plan"
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.StaleAfter == 0 {
		opts.StaleAfter = DefaultStaleAfter
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}

	s := &Store{
		dir:        dir,
		doc:        doc,
		planID:     opts.PlanID,
		maxRetries: opts.MaxRetries,
		staleAfter: opts.StaleAfter,
		log:        opts.Logger,
		inCycle:    graph.TasksInCycle(doc.Tasks),
	}

	// Initialize the state file under the lock so concurrent Opens on a
	// fresh directory do not race.
	if err := s.mutate(func(*State) error { return nil }); err != nil {
		return nil, err
	}
	return s, nil
}

// Dir returns the state directory.
func (s *Store) Dir() string { return s.dir }

// Load returns the current state. Recovery performed during the read
// (backup restore or rebuild) is persisted before returning.
func (s *Store) Load() (*State, error) {
	var snapshot *State
	err := s.mutate(func(st *State) error {
		snapshot = st
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// mutate runs one locked read-modify-write cycle: acquire the file lock,
// load (with tiered recovery), apply fn, recompute the summary and write
// the result atomically.
func (s *Store) mutate(fn func(*State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, err := acquireLock(filepath.Join(s.dir, lockFileName))
	if err != nil {
		return err
	}
	defer lock.release()

	st, err := s.loadLocked()
	if err != nil {
		return err
	}

	if err := fn(st); err != nil {
		return err
	}

	st.Summary = tally(st)
	st.UpdatedAt = time.Now().UTC()
	return s.persistLocked(st)
}

// loadLocked reads state with tiered recovery: primary file, then backup
// (flagged RecoveredFromBackup), then a rebuild from the plan document
// with every task pending (flagged Rebuilt). A missing primary on a fresh
// directory is initialization, not recovery.
func (s *Store) loadLocked() (*State, error) {
	primary := filepath.Join(s.dir, stateFileName)
	backup := filepath.Join(s.dir, backupFileName)

	data, err := os.ReadFile(primary)
	if err == nil {
		var st State
		if jsonErr := json.Unmarshal(data, &st); jsonErr == nil && st.Tasks != nil {
			// Successful read refreshes the shadow backup.
			if err := atomicWriteFile(backup, data); err != nil {
				s.log.Warn("refreshing backup failed", "error", err)
			}
			return &st, nil
		}
		s.log.Warn("primary state file corrupt, trying backup", "path", primary)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading state: %w", err)
	}

	if bakData, bakErr := os.ReadFile(backup); bakErr == nil {
		var st State
		if jsonErr := json.Unmarshal(bakData, &st); jsonErr == nil && st.Tasks != nil {
			st.RecoveredFromBackup = true
			s.log.Warn("state recovered from backup", "path", backup)
			return &st, nil
		}
	}

	if _, statErr := os.Stat(primary); statErr == nil {
		// Primary exists but neither copy decodes: rebuild and flag it.
		s.log.Warn("state rebuilt from plan document",
			"error", ErrCorrupted, "plan", s.planID)
		st := newState(s.planID, s.doc)
		st.Rebuilt = true
		return st, nil
	}

	return newState(s.planID, s.doc), nil
}

func (s *Store) persistLocked(st *State) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	path := filepath.Join(s.dir, stateFileName)
	for attempt := 1; ; attempt++ {
		err = atomicWriteFile(path, data)
		if err == nil {
			return nil
		}
		if attempt >= writeAttempts {
			return fmt.Errorf("writing state: %w", err)
		}
		time.Sleep(time.Duration(attempt) * 10 * time.Millisecond)
	}
}

// atomicWriteFile writes data to a temp file in the target directory,
// syncs it, then renames over path so readers never see a partial file.
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".planline-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// Start moves a pending task to in_progress. Tasks in a dependency cycle
// are refused outright.
func (s *Store) Start(id string) error {
	return s.mutate(func(st *State) error {
		rec := st.record(id)
		if rec == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		if s.inCycle[id] {
			return &CycleError{TaskID: id, Path: graph.CyclePath(s.doc.Tasks, id)}
		}
		if !rec.Status.CanTransition(plan.StatusInProgress) {
			return fmt.Errorf("%w: %s is %s", ErrInvalidTransition, id, rec.Status)
		}
		now := time.Now().UTC()
		rec.Status = plan.StatusInProgress
		rec.StartedAt = &now
		s.log.Info("task started", "task", id)
		return nil
	})
}

// Complete moves an in_progress task to completed and records it on the
// open run. Completing an already-completed task is a no-op, so retried
// deliveries of the same completion never produce duplicate run entries.
func (s *Store) Complete(id, findingsPath string) error {
	return s.mutate(func(st *State) error {
		rec := st.record(id)
		if rec == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		if rec.Status == plan.StatusCompleted {
			return nil
		}
		if !rec.Status.CanTransition(plan.StatusCompleted) {
			return fmt.Errorf("%w: %s is %s", ErrInvalidTransition, id, rec.Status)
		}
		now := time.Now().UTC()
		rec.Status = plan.StatusCompleted
		rec.CompletedAt = &now
		rec.LastError = ""
		if findingsPath != "" {
			rec.FindingsPath = findingsPath
		}
		if r := st.openRun(); r != nil {
			r.Completed = append(r.Completed, id)
		}
		s.log.Info("task completed", "task", id)
		return nil
	})
}

// Fail moves an in_progress task to failed, recording the reason.
func (s *Store) Fail(id, reason string) error {
	return s.mutate(func(st *State) error {
		rec := st.record(id)
		if rec == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		if !rec.Status.CanTransition(plan.StatusFailed) {
			return fmt.Errorf("%w: %s is %s", ErrInvalidTransition, id, rec.Status)
		}
		now := time.Now().UTC()
		rec.Status = plan.StatusFailed
		rec.CompletedAt = &now
		rec.LastError = reason
		if r := st.openRun(); r != nil {
			r.Failed = append(r.Failed, id)
		}
		s.log.Warn("task failed", "task", id, "reason", reason)
		return nil
	})
}

// Skip marks a task skipped. Allowed from any state; skipping an
// already-skipped task is a no-op.
func (s *Store) Skip(id string) error {
	return s.mutate(func(st *State) error {
		rec := st.record(id)
		if rec == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		if rec.Status == plan.StatusSkipped {
			return nil
		}
		rec.Status = plan.StatusSkipped
		s.log.Info("task skipped", "task", id)
		return nil
	})
}

// Retry returns a failed task to pending, subject to the retry ceiling.
// Timestamps and any findings artifact are cleared; LastError is kept as
// the record of the previous attempt.
func (s *Store) Retry(id string) error {
	return s.mutate(func(st *State) error {
		rec := st.record(id)
		if rec == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		if !rec.Status.CanTransition(plan.StatusPending) {
			return fmt.Errorf("%w: %s is %s", ErrInvalidTransition, id, rec.Status)
		}
		if rec.RetryCount >= s.maxRetries {
			return fmt.Errorf("%w: %s has been retried %d times", ErrRetryExhausted, id, rec.RetryCount)
		}
		rec.RetryCount++
		rec.Status = plan.StatusPending
		rec.StartedAt = nil
		rec.CompletedAt = nil
		rec.FindingsPath = ""
		s.log.Info("task retried", "task", id, "attempt", rec.RetryCount)
		return nil
	})
}

// BeginRun opens a new run, closing any run left open, and returns its id.
func (s *Store) BeginRun() (string, error) {
	var id string
	err := s.mutate(func(st *State) error {
		now := time.Now().UTC()
		if r := st.openRun(); r != nil {
			r.EndedAt = &now
		}
		id = newRunID()
		st.Runs = append(st.Runs, Run{ID: id, StartedAt: now})
		s.log.Info("run started", "run", id)
		return nil
	})
	return id, err
}

// EndRun closes the open run, if any.
func (s *Store) EndRun() error {
	return s.mutate(func(st *State) error {
		if r := st.openRun(); r != nil {
			now := time.Now().UTC()
			r.EndedAt = &now
			s.log.Info("run ended", "run", r.ID)
		}
		return nil
	})
}

// SweepStuck fails every task that has sat in_progress longer than the
// staleness window, with a synthetic error message. Returns the swept ids
// in id order. Swept tasks are ordinary failures and remain
// retry-eligible.
func (s *Store) SweepStuck() ([]string, error) {
	var swept []string
	err := s.mutate(func(st *State) error {
		now := time.Now().UTC()
		for _, id := range st.Order {
			rec := st.Tasks[id]
			if rec.Status != plan.StatusInProgress || rec.StartedAt == nil {
				continue
			}
			age := now.Sub(*rec.StartedAt)
			if age <= s.staleAfter {
				continue
			}
			rec.Status = plan.StatusFailed
			rec.CompletedAt = &now
			rec.LastError = fmt.Sprintf("stuck in progress for %s, marked failed by sweep", age.Round(time.Second))
			if r := st.openRun(); r != nil {
				r.Failed = append(r.Failed, id)
			}
			swept = append(swept, id)
		}
		if len(swept) > 0 {
			s.log.Warn("swept stuck tasks", "count", len(swept))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	plan.SortIDs(swept)
	return swept, nil
}

// newRunID returns a short random hex identifier.
func newRunID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("run-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}
