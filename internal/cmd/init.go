package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Parse the plan and create the status store",
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadDocument()
		if err != nil {
			return err
		}

		st, log, err := openStore(doc)
		if err != nil {
			return err
		}
		defer log.Close()

		state, err := st.Load()
		if err != nil {
			return err
		}

		fmt.Printf("Initialized %s: %d phases, %d tasks tracked in %s\n",
			planID(), len(doc.Phases), state.Summary.TotalTasks, st.Dir())
		for _, se := range doc.Skipped {
			fmt.Println(warnStyle.Render("skipped: " + se.Error()))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
