package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show per-task status and the summary tally",
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

		if statusJSON {
			data, err := json.MarshalIndent(state, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}

		fmt.Print(renderState(doc, state))
		return nil
	},
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "emit raw state as JSON")
	rootCmd.AddCommand(statusCmd)
}
