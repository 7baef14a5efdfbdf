package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/planline/planline/internal/schedule"
)

var nextJSON bool

var nextCmd = &cobra.Command{
	Use:   "next",
	Short: "Compute the next batch of dispatchable tasks",
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

		strat, err := schedule.ForName(cfg.Scheduler.Strategy)
		if err != nil {
			return err
		}

		batch := schedule.NextBatch(doc, state.StatusByID(), strat, cfg.Scheduler.MaxParallel)

		if nextJSON {
			data, err := json.MarshalIndent(batch, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}

		fmt.Print(renderBatch(batch))
		return nil
	},
}

func init() {
	nextCmd.Flags().BoolVar(&nextJSON, "json", false, "emit the batch as JSON")
	rootCmd.AddCommand(nextCmd)
}
