package constraint

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Sequential declares a group of tasks that must execute one at a time in
// id order.
type Sequential struct {
	// TaskIDs is the expanded, ordered id set covered by the annotation.
	TaskIDs []string `json:"task_ids"`

	// Reason is the human-supplied justification after the dash separator.
	Reason string `json:"reason"`
}

// Contains returns true if the group covers the given task id.
func (s *Sequential) Contains(taskID string) bool {
	for _, id := range s.TaskIDs {
		if id == taskID {
			return true
		}
	}
	return false
}

// Parallel declares a set of phases safe to run concurrently. Declaring
// phases parallel waives phase ordering between them only; task-level
// dependency gating still applies.
type Parallel struct {
	// Phases is the expanded phase index set covered by the annotation.
	Phases []int `json:"phases"`

	// Reason is the human-supplied justification after the dash separator.
	Reason string `json:"reason"`
}

// Contains returns true if the declaration covers the given phase index.
func (p *Parallel) Contains(phase int) bool {
	for _, n := range p.Phases {
		if n == phase {
			return true
		}
	}
	return false
}

// Set is the result of parsing a document's annotations. It exposes named
// Sequential and Parallel fields; the Len/At pair provides positional
// access over the sequential groups for call sites that iterate the result
// like a list, which is how the original annotation API was consumed.
type Set struct {
	Sequential []Sequential `json:"sequential"`
	Parallel   []Parallel   `json:"parallel"`
}

// Len returns the number of sequential groups.
func (s *Set) Len() int {
	return len(s.Sequential)
}

// At returns the i-th sequential group.
func (s *Set) At(i int) Sequential {
	return s.Sequential[i]
}

// GroupsFor returns every sequential group containing the given task id.
// Groups are not required to be disjoint; overlapping declarations all
// apply.
func (s *Set) GroupsFor(taskID string) []Sequential {
	var groups []Sequential
	for _, g := range s.Sequential {
		if g.Contains(taskID) {
			groups = append(groups, g)
		}
	}
	return groups
}

// ParallelPeers returns the phase indices declared parallel with the given
// phase, excluding the phase itself.
func (s *Set) ParallelPeers(phase int) []int {
	var peers []int
	for _, p := range s.Parallel {
		if !p.Contains(phase) {
			continue
		}
		for _, n := range p.Phases {
			if n != phase {
				peers = append(peers, n)
			}
		}
	}
	return peers
}

// Annotation grammar. The bracketed keyword is case-sensitive; the reason
// separator accepts hyphen, en dash and em dash.
var (
	sequentialRe = regexp.MustCompile(`Tasks?\s+([\d.,\s-]+?)\s+are\s+\[SEQUENTIAL\]\s*[-\x{2013}\x{2014}]\s*(.+)`)
	parallelRe   = regexp.MustCompile(`Phases?\s+([\d,\s-]+?)\s+are\s+\[PARALLEL\]\s*[-\x{2013}\x{2014}]\s*(.+)`)
)

// Parse extracts all [SEQUENTIAL] and [PARALLEL] annotations from the
// given text. Annotations with ranges that expand to nothing are dropped.
func Parse(text string) *Set {
	set := &Set{}

	for _, m := range sequentialRe.FindAllStringSubmatch(text, -1) {
		ids := ExpandTaskRange(m[1])
		if len(ids) == 0 {
			continue
		}
		set.Sequential = append(set.Sequential, Sequential{
			TaskIDs: ids,
			Reason:  strings.TrimSpace(m[2]),
		})
	}

	for _, m := range parallelRe.FindAllStringSubmatch(text, -1) {
		phases := ExpandPhaseRange(m[1])
		if len(phases) == 0 {
			continue
		}
		set.Parallel = append(set.Parallel, Parallel{
			Phases: phases,
			Reason: strings.TrimSpace(m[2]),
		})
	}

	return set
}

var taskIDRe = regexp.MustCompile(`^\d+\.\d+(\.\d+)?$`)

// ExpandTaskRange expands a comma-separated task range expression into an
// ordered id list. Each part is either a single dotted id ("3.1") or a
// span of decimal tasks ("3.1-3.4"), which steps by 0.1 within the same
// major segment. Malformed parts expand to empty; the function never
// errors.
func ExpandTaskRange(expr string) []string {
	var ids []string
	for _, part := range strings.Split(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		low, high, isSpan := strings.Cut(part, "-")
		if !isSpan {
			if taskIDRe.MatchString(part) {
				ids = append(ids, part)
			}
			continue
		}

		lowMajor, lowMinor, ok1 := splitDecimalID(strings.TrimSpace(low))
		highMajor, highMinor, ok2 := splitDecimalID(strings.TrimSpace(high))
		if !ok1 || !ok2 || lowMajor != highMajor || lowMinor > highMinor {
			continue
		}
		for minor := lowMinor; minor <= highMinor; minor++ {
			ids = append(ids, fmt.Sprintf("%d.%d", lowMajor, minor))
		}
	}
	return ids
}

// splitDecimalID splits a two-segment id like "3.1" into its major and
// minor components. Spans only step over two-segment ids.
func splitDecimalID(id string) (major, minor int, ok bool) {
	head, tail, found := strings.Cut(id, ".")
	if !found || strings.Contains(tail, ".") {
		return 0, 0, false
	}
	major, err := strconv.Atoi(head)
	if err != nil {
		return 0, 0, false
	}
	minor, err = strconv.Atoi(tail)
	if err != nil {
		return 0, 0, false
	}
	return major, minor, true
}

// ExpandPhaseRange expands a comma-separated phase range expression into
// an ordered index list. Each part is a single integer or an integer span
// ("3-5"). Malformed parts expand to empty; the function never errors.
func ExpandPhaseRange(expr string) []int {
	var phases []int
	for _, part := range strings.Split(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		low, high, isSpan := strings.Cut(part, "-")
		if !isSpan {
			if n, err := strconv.Atoi(part); err == nil {
				phases = append(phases, n)
			}
			continue
		}

		lowN, err1 := strconv.Atoi(strings.TrimSpace(low))
		highN, err2 := strconv.Atoi(strings.TrimSpace(high))
		if err1 != nil || err2 != nil || lowN > highN {
			continue
		}
		for n := lowN; n <= highN; n++ {
			phases = append(phases, n)
		}
	}
	return phases
}
