package graph

import (
	"fmt"

	"github.com/planline/planline/internal/plan"
)

// Validation is the outcome of checking one task's dependency references.
type Validation struct {
	// Valid is true when no self-dependency and no unknown references were
	// found.
	Valid bool

	// Errors holds one human-readable message per problem found.
	Errors []string

	// InvalidIDs lists referenced ids that do not exist in the plan.
	InvalidIDs []string

	// HasSelfDependency is true when the task lists itself as a dependency.
	HasSelfDependency bool
}

// ValidateDependencies checks a task's dependency list against the set of
// known task ids. Self-dependency and unknown references are reported
// independently; finding one class of problem never masks the other.
func ValidateDependencies(taskID string, deps []string, allIDs map[string]bool) Validation {
	v := Validation{Valid: true}

	for _, dep := range deps {
		if dep == taskID {
			v.HasSelfDependency = true
			v.Errors = append(v.Errors, fmt.Sprintf("task %s depends on itself", taskID))
			continue
		}
		if !allIDs[dep] {
			v.InvalidIDs = append(v.InvalidIDs, dep)
			v.Errors = append(v.Errors, fmt.Sprintf("task %s depends on unknown task %s", taskID, dep))
		}
	}

	if v.HasSelfDependency || len(v.InvalidIDs) > 0 {
		v.Valid = false
	}
	return v
}

// DependenciesSatisfied reports whether every dependency is completed.
// Failed and skipped dependencies do not satisfy; a task whose dependency
// was skipped stays blocked until an operator skips it too.
func DependenciesSatisfied(deps []string, statusByID map[string]plan.Status) bool {
	for _, dep := range deps {
		if statusByID[dep] != plan.StatusCompleted {
			return false
		}
	}
	return true
}
