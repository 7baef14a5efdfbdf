package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/planline/planline/internal/plan"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks [selector]",
	Short: "List tasks matching a selector (all, phase:N, or an id list)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadDocument()
		if err != nil {
			return err
		}

		selector := "all"
		if len(args) == 1 {
			selector = args[0]
		}
		tasks, err := plan.Select(doc, selector)
		if err != nil {
			return err
		}

		plan.SortByID(tasks)
		for _, t := range tasks {
			line := fmt.Sprintf("%-8s %s", t.ID, t.Description)
			if len(t.DependsOn) > 0 {
				line += dimStyle.Render(fmt.Sprintf("  (depends: %v)", t.DependsOn))
			}
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tasksCmd)
}
