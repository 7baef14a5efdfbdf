package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/planline/planline/internal/conflict"
	"github.com/planline/planline/internal/graph"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the plan file and revalidate on every change",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := loadDocument(); err != nil {
			return err
		}

		revalidate := func() {
			doc, err := loadDocument()
			if err != nil {
				fmt.Println(warnStyle.Render("plan unreadable: " + err.Error()))
				return
			}
			if cycle := graph.DetectCycles(doc.Tasks); cycle != nil {
				fmt.Println(warnStyle.Render(fmt.Sprintf("plan changed: cycle %v", cycle)))
				return
			}
			fmt.Printf("plan changed: %d tasks, OK\n", len(doc.Tasks))
		}

		w, err := conflict.Watch(planPath, revalidate)
		if err != nil {
			return err
		}
		defer w.Close()

		fmt.Printf("Watching %s (ctrl-c to stop)\n", planPath)
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
