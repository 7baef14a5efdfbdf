package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/planline/planline/internal/plan"
)

func makeDoc(t *testing.T) *plan.Document {
	t.Helper()
	doc, err := plan.Parse(`
## Phase 1: One
- [ ] 1.1 First
- [ ] 1.2 Second (depends: 1.1)
## Phase 2: Two
- [ ] 2.1 Third (depends: 1.2)
`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return doc
}

func openTestStore(t *testing.T, opts Options) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), makeDoc(t), opts)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s
}

func TestOpenInitializesState(t *testing.T) {
	s := openTestStore(t, Options{})
	st, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if st.Summary.TotalTasks != 3 || st.Summary.Pending != 3 {
		t.Errorf("summary = %+v, want 3 total, 3 pending", st.Summary)
	}
	if st.Rebuilt || st.RecoveredFromBackup {
		t.Error("fresh initialization must not carry recovery flags")
	}
	if _, err := os.Stat(filepath.Join(s.Dir(), stateFileName)); err != nil {
		t.Errorf("state file missing: %v", err)
	}
}

func TestLifecycleAndSummary(t *testing.T) {
	s := openTestStore(t, Options{})

	if err := s.Start("1.1"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Complete("1.1", ""); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if err := s.Start("1.2"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Fail("1.2", "flaky migration"); err != nil {
		t.Fatalf("Fail: %v", err)
	}
	if err := s.Skip("2.1"); err != nil {
		t.Fatalf("Skip: %v", err)
	}

	st, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	sum := st.Summary
	if sum.Completed != 1 || sum.Failed != 1 || sum.Skipped != 1 || sum.Pending != 0 {
		t.Errorf("summary = %+v", sum)
	}
	// The persisted summary must equal a fresh tally of the records.
	if got := tally(st); got != sum {
		t.Errorf("persisted summary %+v != recomputed %+v", sum, got)
	}
	if st.Tasks["1.2"].LastError != "flaky migration" {
		t.Errorf("LastError = %q", st.Tasks["1.2"].LastError)
	}
}

func TestInvalidTransitions(t *testing.T) {
	s := openTestStore(t, Options{})

	if err := s.Complete("1.1", ""); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Complete pending = %v, want ErrInvalidTransition", err)
	}
	if err := s.Retry("1.1"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Retry pending = %v, want ErrInvalidTransition", err)
	}
	if err := s.Start("9.9"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Start unknown = %v, want ErrNotFound", err)
	}
}

func TestCompleteIdempotent(t *testing.T) {
	s := openTestStore(t, Options{})

	if _, err := s.BeginRun(); err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	if err := s.Start("1.1"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Complete("1.1", ""); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	// Redelivered completion is a no-op.
	if err := s.Complete("1.1", ""); err != nil {
		t.Fatalf("second Complete: %v", err)
	}

	st, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	run := st.Runs[len(st.Runs)-1]
	if len(run.Completed) != 1 {
		t.Errorf("run completions = %v, want exactly one entry", run.Completed)
	}
}

func TestRetryCeiling(t *testing.T) {
	s := openTestStore(t, Options{MaxRetries: 2})

	failOnce := func() {
		t.Helper()
		if err := s.Start("1.1"); err != nil {
			t.Fatalf("Start: %v", err)
		}
		if err := s.Fail("1.1", "boom"); err != nil {
			t.Fatalf("Fail: %v", err)
		}
	}

	failOnce()
	for i := 0; i < 2; i++ {
		if err := s.Retry("1.1"); err != nil {
			t.Fatalf("Retry %d: %v", i+1, err)
		}
		failOnce()
	}
	if err := s.Retry("1.1"); !errors.Is(err, ErrRetryExhausted) {
		t.Errorf("Retry past ceiling = %v, want ErrRetryExhausted", err)
	}
}

func TestRetryClearsAttemptState(t *testing.T) {
	s := openTestStore(t, Options{})
	if err := s.Start("1.1"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Fail("1.1", "boom"); err != nil {
		t.Fatalf("Fail: %v", err)
	}
	if err := s.Retry("1.1"); err != nil {
		t.Fatalf("Retry: %v", err)
	}

	st, _ := s.Load()
	rec := st.Tasks["1.1"]
	if rec.Status != plan.StatusPending {
		t.Errorf("status = %s, want pending", rec.Status)
	}
	if rec.StartedAt != nil || rec.CompletedAt != nil {
		t.Error("timestamps must be cleared on retry")
	}
	if rec.RetryCount != 1 {
		t.Errorf("RetryCount = %d, want 1", rec.RetryCount)
	}
}

func TestStartRefusesCycleMembers(t *testing.T) {
	doc, err := plan.Parse(`
## Phase 1: One
- [ ] 1.1 A (depends: 1.2)
- [ ] 1.2 B (depends: 1.1)
- [ ] 1.3 C
`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	s, err := Open(t.TempDir(), doc, Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	err = s.Start("1.1")
	var ce *CycleError
	if !errors.As(err, &ce) {
		t.Fatalf("Start cycle member = %v, want CycleError", err)
	}
	if len(ce.Path) < 3 {
		t.Errorf("cycle path = %v, want a full id path", ce.Path)
	}
	if err := s.Start("1.3"); err != nil {
		t.Errorf("Start off-cycle task: %v", err)
	}
}

func TestStartCycleErrorNamesOwnCycle(t *testing.T) {
	doc, err := plan.Parse(`
## Phase 1: One
- [ ] 1.1 A (depends: 1.2)
- [ ] 1.2 B (depends: 1.1)
## Phase 2: Two
- [ ] 2.1 C (depends: 2.2)
- [ ] 2.2 D (depends: 2.1)
`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	s, err := Open(t.TempDir(), doc, Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	// The refused task must appear in its own error path even when the
	// plan holds several disjoint cycles.
	err = s.Start("2.2")
	var ce *CycleError
	if !errors.As(err, &ce) {
		t.Fatalf("Start = %v, want CycleError", err)
	}
	found := false
	for _, id := range ce.Path {
		if id == "2.2" {
			found = true
		}
		if id == "1.1" || id == "1.2" {
			t.Errorf("path %v names tasks from another cycle", ce.Path)
		}
	}
	if !found {
		t.Errorf("path %v does not contain the refused task", ce.Path)
	}
}

func TestConcurrentMutations(t *testing.T) {
	dir := t.TempDir()
	var lines []string
	for p := 1; p <= 4; p++ {
		lines = append(lines, fmt.Sprintf("## Phase %d: P%d", p, p))
		for n := 1; n <= 4; n++ {
			lines = append(lines, fmt.Sprintf("- [ ] %d.%d Task", p, n))
		}
	}
	text := ""
	for _, l := range lines {
		text += l + "\n"
	}
	doc, err := plan.Parse(text)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	s, err := Open(dir, doc, Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	var wg sync.WaitGroup
	for _, task := range doc.Tasks {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if err := s.Start(id); err != nil {
				t.Errorf("Start %s: %v", id, err)
				return
			}
			if err := s.Complete(id, ""); err != nil {
				t.Errorf("Complete %s: %v", id, err)
			}
		}(task.ID)
	}
	wg.Wait()

	st, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if st.Summary.Completed != len(doc.Tasks) {
		t.Errorf("completed = %d, want %d: no concurrent update may be lost",
			st.Summary.Completed, len(doc.Tasks))
	}
}

func TestRecoveryFromBackup(t *testing.T) {
	dir := t.TempDir()
	doc := makeDoc(t)
	s, err := Open(dir, doc, Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Start("1.1"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Complete("1.1", ""); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	// A successful read refreshes the shadow backup.
	if _, err := s.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	// Corrupt the primary; the backup holds the last good read.
	if err := os.WriteFile(filepath.Join(dir, stateFileName), []byte("{garbage"), 0644); err != nil {
		t.Fatalf("corrupting: %v", err)
	}

	st, err := s.Load()
	if err != nil {
		t.Fatalf("Load after corruption: %v", err)
	}
	if !st.RecoveredFromBackup {
		t.Error("RecoveredFromBackup not set")
	}
	if st.Tasks["1.1"].Status != plan.StatusCompleted {
		t.Errorf("1.1 = %s, want completed from backup", st.Tasks["1.1"].Status)
	}
}

func TestRebuildWhenBothCorrupt(t *testing.T) {
	dir := t.TempDir()
	doc := makeDoc(t)
	s, err := Open(dir, doc, Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Start("1.1"); err != nil {
		t.Fatalf("Start: %v", err)
	}

	for _, name := range []string{stateFileName, backupFileName} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{garbage"), 0644); err != nil {
			t.Fatalf("corrupting %s: %v", name, err)
		}
	}

	st, err := s.Load()
	if err != nil {
		t.Fatalf("Load after double corruption: %v", err)
	}
	if !st.Rebuilt {
		t.Error("Rebuilt not set")
	}
	if st.Tasks["1.1"].Status != plan.StatusPending {
		t.Errorf("1.1 = %s, want pending after rebuild", st.Tasks["1.1"].Status)
	}
	if st.Summary.TotalTasks != 3 {
		t.Errorf("rebuilt total = %d, want 3", st.Summary.TotalTasks)
	}
}

func TestSweepStuck(t *testing.T) {
	s := openTestStore(t, Options{StaleAfter: time.Millisecond})

	if err := s.Start("1.1"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	swept, err := s.SweepStuck()
	if err != nil {
		t.Fatalf("SweepStuck: %v", err)
	}
	if len(swept) != 1 || swept[0] != "1.1" {
		t.Fatalf("swept = %v, want [1.1]", swept)
	}

	st, _ := s.Load()
	rec := st.Tasks["1.1"]
	if rec.Status != plan.StatusFailed {
		t.Errorf("status = %s, want failed", rec.Status)
	}
	if rec.LastError == "" {
		t.Error("swept task must carry a synthetic error")
	}

	// A swept task is an ordinary failure: still retry-eligible.
	if err := s.Retry("1.1"); err != nil {
		t.Errorf("Retry after sweep: %v", err)
	}
}

func TestSweepLeavesFreshTasks(t *testing.T) {
	s := openTestStore(t, Options{StaleAfter: time.Hour})
	if err := s.Start("1.1"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	swept, err := s.SweepStuck()
	if err != nil {
		t.Fatalf("SweepStuck: %v", err)
	}
	if len(swept) != 0 {
		t.Errorf("swept = %v, want none inside the staleness window", swept)
	}
}

func TestRunHistory(t *testing.T) {
	s := openTestStore(t, Options{})

	first, err := s.BeginRun()
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	if err := s.Start("1.1"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Complete("1.1", ""); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	// Opening a second run closes the first.
	second, err := s.BeginRun()
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	if first == second {
		t.Error("run ids must differ")
	}

	st, _ := s.Load()
	if len(st.Runs) != 2 {
		t.Fatalf("runs = %d, want 2", len(st.Runs))
	}
	if st.Runs[0].EndedAt == nil {
		t.Error("first run must be closed")
	}
	if len(st.Runs[0].Completed) != 1 || st.Runs[0].Completed[0] != "1.1" {
		t.Errorf("first run completions = %v", st.Runs[0].Completed)
	}
	if st.Runs[1].EndedAt != nil {
		t.Error("second run must still be open")
	}

	if err := s.EndRun(); err != nil {
		t.Fatalf("EndRun: %v", err)
	}
	st, _ = s.Load()
	if st.Runs[1].EndedAt == nil {
		t.Error("EndRun must close the open run")
	}
}

func TestStateFileIsValidJSON(t *testing.T) {
	s := openTestStore(t, Options{})
	data, err := os.ReadFile(filepath.Join(s.Dir(), stateFileName))
	if err != nil {
		t.Fatalf("reading state: %v", err)
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		t.Fatalf("state file is not valid JSON: %v", err)
	}
	if st.PlanID != "plan" {
		t.Errorf("plan id = %q", st.PlanID)
	}
}
