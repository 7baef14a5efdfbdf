package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/planline/planline/internal/conflict"
	"github.com/planline/planline/internal/graph"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the plan for structural errors, bad references and cycles",
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadDocument()
		if err != nil {
			return err
		}

		problems := 0

		for _, se := range doc.Skipped {
			fmt.Println(warnStyle.Render("structural: " + se.Error()))
		}

		allIDs := doc.TaskIDs()
		for _, t := range doc.Tasks {
			v := graph.ValidateDependencies(t.ID, t.DependsOn, allIDs)
			for _, msg := range v.Errors {
				fmt.Println(warnStyle.Render("dependency: " + msg))
				problems++
			}
		}

		if cycle := graph.DetectCycles(doc.Tasks); cycle != nil {
			fmt.Println(warnStyle.Render("cycle: " + strings.Join(cycle, " -> ")))
			problems++
		}

		// Conflicts are advisory: reported, never counted as problems.
		for _, c := range conflict.DetectFileConflicts(doc.Tasks) {
			fmt.Println(dimStyle.Render(
				fmt.Sprintf("conflict: %s touched by %s", c.File, strings.Join(c.TaskIDs, ", "))))
		}

		if problems > 0 {
			return fmt.Errorf("plan has %d problem(s)", problems)
		}
		fmt.Printf("Plan OK: %d phases, %d tasks, %d sequential group(s), %d parallel declaration(s)\n",
			len(doc.Phases), len(doc.Tasks),
			doc.Constraints.Len(), len(doc.Constraints.Parallel))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
