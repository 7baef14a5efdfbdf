package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/planline/planline/internal/plan"
	"github.com/planline/planline/internal/schedule"
	"github.com/planline/planline/internal/store"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	phaseStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))

	statusStyles = map[plan.Status]lipgloss.Style{
		plan.StatusPending:    lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		plan.StatusInProgress: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		plan.StatusCompleted:  lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		plan.StatusFailed:     lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		plan.StatusSkipped:    lipgloss.NewStyle().Foreground(lipgloss.Color("13")),
	}
)

func renderStatus(s plan.Status) string {
	if style, ok := statusStyles[s]; ok {
		return style.Render(s.String())
	}
	return s.String()
}

// renderState prints the plan's tasks grouped by phase with their current
// status, followed by the summary tally.
func renderState(doc *plan.Document, st *store.State) string {
	var b strings.Builder

	for _, p := range doc.Phases {
		fmt.Fprintln(&b, phaseStyle.Render(fmt.Sprintf("Phase %d: %s", p.Index, p.Name)))
		for _, id := range p.TaskIDs {
			rec := st.Tasks[id]
			if rec == nil {
				continue
			}
			fmt.Fprintf(&b, "  %-8s %-12s %s\n", id, renderStatus(rec.Status), rec.Description)
			if rec.LastError != "" {
				fmt.Fprintf(&b, "  %s\n", dimStyle.Render("         "+rec.LastError))
			}
		}
	}

	sum := st.Summary
	fmt.Fprintf(&b, "\n%s %d total: %d completed, %d in progress, %d pending, %d failed, %d skipped\n",
		headerStyle.Render("Summary:"),
		sum.TotalTasks, sum.Completed, sum.InProgress, sum.Pending, sum.Failed, sum.Skipped)

	if st.RecoveredFromBackup {
		fmt.Fprintln(&b, warnStyle.Render("note: state was recovered from backup"))
	}
	if st.Rebuilt {
		fmt.Fprintln(&b, warnStyle.Render("note: state was rebuilt from the plan document"))
	}
	return b.String()
}

// renderBatch prints a dispatch recommendation with conflict and
// parallel-group annotations.
func renderBatch(batch schedule.Batch) string {
	if len(batch.Tasks) == 0 {
		return "No tasks ready.\n"
	}

	var b strings.Builder
	fmt.Fprintln(&b, headerStyle.Render("Next batch:"))
	for _, t := range batch.Tasks {
		line := fmt.Sprintf("  %-8s %s", t.ID, t.Description)
		if group, ok := batch.ParallelGroups[t.ID]; ok {
			line += dimStyle.Render(fmt.Sprintf("  [parallel group %d]", group))
		}
		fmt.Fprintln(&b, line)
	}

	for _, c := range batch.Conflicts {
		fmt.Fprintln(&b, warnStyle.Render(
			fmt.Sprintf("conflict: %s touched by %s", c.File, strings.Join(c.TaskIDs, ", "))))
	}
	return b.String()
}

// renderRuns prints the run history, newest last.
func renderRuns(runs []store.Run) string {
	if len(runs) == 0 {
		return "No runs recorded.\n"
	}

	var b strings.Builder
	for _, r := range runs {
		end := "open"
		if r.EndedAt != nil {
			end = r.EndedAt.Format(time.RFC3339)
		}
		fmt.Fprintf(&b, "%s  %s .. %s  completed=%d failed=%d\n",
			headerStyle.Render(r.ID),
			r.StartedAt.Format(time.RFC3339), end,
			len(r.Completed), len(r.Failed))
		if len(r.Completed) > 0 {
			fmt.Fprintf(&b, "  completed: %s\n", strings.Join(r.Completed, ", "))
		}
		if len(r.Failed) > 0 {
			fmt.Fprintf(&b, "  failed:    %s\n", strings.Join(r.Failed, ", "))
		}
	}
	return b.String()
}
