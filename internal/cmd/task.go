package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/planline/planline/internal/plan"
	"github.com/planline/planline/internal/store"
)

// withStore loads the document, opens the store, and runs fn.
func withStore(fn func(*store.Store) error) error {
	doc, err := loadDocument()
	if err != nil {
		return err
	}
	st, log, err := openStore(doc)
	if err != nil {
		return err
	}
	defer log.Close()
	return fn(st)
}

var startCmd = &cobra.Command{
	Use:   "start <task-id>",
	Short: "Mark a task in progress",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(st *store.Store) error {
			if err := st.Start(args[0]); err != nil {
				return err
			}
			fmt.Printf("%s %s\n", args[0], renderStatus(plan.StatusInProgress))
			return nil
		})
	},
}

var completeFindings string

var completeCmd = &cobra.Command{
	Use:   "complete <task-id>",
	Short: "Mark a task completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(st *store.Store) error {
			if err := st.Complete(args[0], completeFindings); err != nil {
				return err
			}
			fmt.Printf("%s %s\n", args[0], renderStatus(plan.StatusCompleted))
			return nil
		})
	},
}

var failReason string

var failCmd = &cobra.Command{
	Use:   "fail <task-id>",
	Short: "Mark a task failed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(st *store.Store) error {
			if err := st.Fail(args[0], failReason); err != nil {
				return err
			}
			fmt.Printf("%s %s\n", args[0], renderStatus(plan.StatusFailed))
			return nil
		})
	},
}

var skipCmd = &cobra.Command{
	Use:   "skip <task-id>",
	Short: "Mark a task skipped",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(st *store.Store) error {
			if err := st.Skip(args[0]); err != nil {
				return err
			}
			fmt.Printf("%s %s\n", args[0], renderStatus(plan.StatusSkipped))
			return nil
		})
	},
}

var retryCmd = &cobra.Command{
	Use:   "retry <task-id>",
	Short: "Return a failed task to pending",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(st *store.Store) error {
			if err := st.Retry(args[0]); err != nil {
				return err
			}
			fmt.Printf("%s %s\n", args[0], renderStatus(plan.StatusPending))
			return nil
		})
	},
}

func init() {
	completeCmd.Flags().StringVar(&completeFindings, "findings", "", "path to a findings artifact to record")
	failCmd.Flags().StringVar(&failReason, "reason", "", "failure reason to record")
	rootCmd.AddCommand(startCmd, completeCmd, failCmd, skipCmd, retryCmd)
}
