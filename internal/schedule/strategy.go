package schedule

import (
	"fmt"

	"github.com/planline/planline/internal/plan"
)

// Context carries scheduling hints computed once per batch.
type Context struct {
	// Critical marks tasks lying on a longest dependency chain.
	Critical map[string]bool
}

// Strategy selects which ready tasks to dispatch in the next batch.
type Strategy interface {
	// Name returns the strategy's configuration name.
	Name() string

	// SelectTasks picks at most maxParallel tasks from the ready set.
	// maxParallel <= 0 means unlimited.
	SelectTasks(ready []plan.Task, maxParallel int, ctx Context) []plan.Task
}

// Strategy names accepted in configuration.
const (
	StrategyEager        = "eager"
	StrategyCriticalPath = "critical-path"
	StrategyAdaptive     = "adaptive"

	DefaultStrategy = StrategyAdaptive
)

// ForName returns the strategy registered under the given name. An empty
// name selects the default.
func ForName(name string) (Strategy, error) {
	switch name {
	case StrategyEager:
		return eagerStrategy{}, nil
	case StrategyCriticalPath:
		return criticalPathStrategy{}, nil
	case StrategyAdaptive, "":
		return adaptiveStrategy{}, nil
	default:
		return nil, fmt.Errorf("unknown strategy %q (want %s, %s or %s)",
			name, StrategyEager, StrategyCriticalPath, StrategyAdaptive)
	}
}

// eagerStrategy fills every slot in id order.
type eagerStrategy struct{}

func (eagerStrategy) Name() string { return StrategyEager }

func (eagerStrategy) SelectTasks(ready []plan.Task, maxParallel int, _ Context) []plan.Task {
	picked := sortedCopy(ready)
	if maxParallel > 0 && len(picked) > maxParallel {
		picked = picked[:maxParallel]
	}
	return picked
}

// criticalPathStrategy dispatches critical-chain tasks first and backfills
// remaining slots in id order.
type criticalPathStrategy struct{}

func (criticalPathStrategy) Name() string { return StrategyCriticalPath }

func (criticalPathStrategy) SelectTasks(ready []plan.Task, maxParallel int, ctx Context) []plan.Task {
	sorted := sortedCopy(ready)

	var picked []plan.Task
	for _, t := range sorted {
		if ctx.Critical[t.ID] {
			picked = append(picked, t)
		}
	}
	for _, t := range sorted {
		if !ctx.Critical[t.ID] {
			picked = append(picked, t)
		}
	}
	if maxParallel > 0 && len(picked) > maxParallel {
		picked = picked[:maxParallel]
	}
	return picked
}

// adaptiveStrategy fills each slot preferring an unpicked critical task
// when one is available, otherwise the lowest-id remaining task, then
// returns the batch in id order.
type adaptiveStrategy struct{}

func (adaptiveStrategy) Name() string { return StrategyAdaptive }

func (adaptiveStrategy) SelectTasks(ready []plan.Task, maxParallel int, ctx Context) []plan.Task {
	sorted := sortedCopy(ready)
	limit := len(sorted)
	if maxParallel > 0 && maxParallel < limit {
		limit = maxParallel
	}

	taken := make(map[string]bool, limit)
	var picked []plan.Task

	for len(picked) < limit {
		var next *plan.Task
		for i := range sorted {
			t := &sorted[i]
			if taken[t.ID] || !ctx.Critical[t.ID] {
				continue
			}
			next = t
			break
		}
		if next == nil {
			for i := range sorted {
				t := &sorted[i]
				if !taken[t.ID] {
					next = t
					break
				}
			}
		}
		if next == nil {
			break
		}
		taken[next.ID] = true
		picked = append(picked, *next)
	}

	plan.SortByID(picked)
	return picked
}

func sortedCopy(tasks []plan.Task) []plan.Task {
	out := make([]plan.Task, len(tasks))
	copy(out, tasks)
	plan.SortByID(out)
	return out
}
