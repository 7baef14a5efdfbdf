package plan

import (
	"reflect"
	"strings"
	"testing"
)

const sampleDoc = `# Rollout plan

## Phase 1: Foundations
- [ ] 1.1 Create schema in ` + "`src/db/schema.sql`" + `
- [ ] 1.2 Write seed script (depends: 1.1)

## Phase 2: API
- [ ] 2.1 Implement handlers in src/api/handlers.go (depends: 1.2)
- [ ] 2.2 Add request validation (depends: 2.1)

Tasks 2.1, 2.2 are [SEQUENTIAL] - both touch the router

## Phase 3: Docs
- [ ] 3.1 Update README.md
`

func TestParse(t *testing.T) {
	doc, err := Parse(sampleDoc)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if got, want := len(doc.Phases), 3; got != want {
		t.Fatalf("phases = %d, want %d", got, want)
	}
	if got, want := len(doc.Tasks), 5; got != want {
		t.Fatalf("tasks = %d, want %d", got, want)
	}

	task := doc.Task("1.2")
	if task == nil {
		t.Fatal("task 1.2 not found")
	}
	if !reflect.DeepEqual(task.DependsOn, []string{"1.1"}) {
		t.Errorf("1.2 deps = %v, want [1.1]", task.DependsOn)
	}
	if task.Phase != 1 {
		t.Errorf("1.2 phase = %d, want 1", task.Phase)
	}

	if doc.Constraints.Len() != 1 {
		t.Errorf("sequential groups = %d, want 1", doc.Constraints.Len())
	}

	p := doc.PhaseByIndex(2)
	if p == nil {
		t.Fatal("phase 2 not found")
	}
	if want := []string{"2.1", "2.2"}; !reflect.DeepEqual(p.TaskIDs, want) {
		t.Errorf("phase 2 task ids = %v, want %v", p.TaskIDs, want)
	}
}

func TestParseDuplicatesSkipped(t *testing.T) {
	doc, err := Parse(`
## Phase 1: Setup
- [ ] 1.1 First
- [ ] 1.1 Duplicate
- [ ] 1.2 Second
`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got, want := len(doc.Tasks), 2; got != want {
		t.Errorf("tasks = %d, want %d", got, want)
	}
	if len(doc.Skipped) != 1 {
		t.Fatalf("skipped = %d, want 1", len(doc.Skipped))
	}
	if !strings.Contains(doc.Skipped[0].Reason, "duplicate task id") {
		t.Errorf("reason = %q", doc.Skipped[0].Reason)
	}
}

func TestParseSynthesizesMissingPhase(t *testing.T) {
	doc, err := Parse("- [ ] 4.1 Orphan task")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	p := doc.PhaseByIndex(4)
	if p == nil {
		t.Fatal("synthesized phase 4 not found")
	}
	if !reflect.DeepEqual(p.TaskIDs, []string{"4.1"}) {
		t.Errorf("phase 4 task ids = %v", p.TaskIDs)
	}
}

func TestParseEmptyDocument(t *testing.T) {
	if _, err := Parse("no tasks here"); err == nil {
		t.Fatal("expected error for a document with no tasks")
	}
}

func TestCompareIDs(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.1", "1.2", -1},
		{"1.2", "1.1", 1},
		{"1.9", "1.10", -1},
		{"2.1", "10.1", -1},
		{"1.1", "1.1.1", -1},
		{"1.1", "1.1", 0},
	}
	for _, tt := range tests {
		if got := CompareIDs(tt.a, tt.b); got != tt.want {
			t.Errorf("CompareIDs(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSortIDs(t *testing.T) {
	ids := []string{"1.10", "1.2", "2.1", "1.1"}
	SortIDs(ids)
	if want := []string{"1.1", "1.2", "1.10", "2.1"}; !reflect.DeepEqual(ids, want) {
		t.Errorf("sorted = %v, want %v", ids, want)
	}
}

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusInProgress, true},
		{StatusPending, StatusCompleted, false},
		{StatusInProgress, StatusCompleted, true},
		{StatusInProgress, StatusFailed, true},
		{StatusFailed, StatusPending, true},
		{StatusCompleted, StatusInProgress, false},
		{StatusCompleted, StatusSkipped, true},
		{StatusInProgress, StatusSkipped, true},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.want {
			t.Errorf("CanTransition(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	if StatusFailed.IsTerminal() {
		t.Error("failed must not be terminal; it stays retry-eligible")
	}
	if !StatusCompleted.IsTerminal() || !StatusSkipped.IsTerminal() {
		t.Error("completed and skipped must be terminal")
	}
}
