package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/planline/planline/internal/store"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Fail tasks stuck in progress past the staleness window",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(st *store.Store) error {
			swept, err := st.SweepStuck()
			if err != nil {
				return err
			}
			if len(swept) == 0 {
				fmt.Println("Nothing to sweep.")
				return nil
			}
			fmt.Printf("Swept %d stuck task(s): %s\n", len(swept), strings.Join(swept, ", "))
			return nil
		})
	},
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show run history",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(st *store.Store) error {
			state, err := st.Load()
			if err != nil {
				return err
			}
			fmt.Print(renderRuns(state.Runs))
			return nil
		})
	},
}

var runBeginCmd = &cobra.Command{
	Use:   "begin",
	Short: "Open a new run",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(st *store.Store) error {
			id, err := st.BeginRun()
			if err != nil {
				return err
			}
			fmt.Printf("Run %s started\n", id)
			return nil
		})
	},
}

var runEndCmd = &cobra.Command{
	Use:   "end",
	Short: "Close the open run",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(st *store.Store) error {
			return st.EndRun()
		})
	},
}

func init() {
	runsCmd.AddCommand(runBeginCmd, runEndCmd)
	rootCmd.AddCommand(sweepCmd, runsCmd)
}
