package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"ticlog/internal/output"
)

var showCmd = &cobra.Command{
	Use:     "show <id>",
	Short:   "Show an event in full",
	GroupID: "core",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		st, err := openStore()
		if err != nil {
			if asJSON {
				output.JSONError(output.ErrCodeDatabaseError, err.Error())
			} else {
				output.Error("%v", err)
			}
			return err
		}
		defer st.Close()

		ev, err := st.GetEvent(args[0])
		if err != nil {
			if asJSON {
				output.JSONError(output.ErrCodeDatabaseError, err.Error())
			} else {
				output.Error("%v", err)
			}
			return err
		}
		if ev == nil {
			if asJSON {
				output.JSONError(output.ErrCodeNotFound, fmt.Sprintf("event %s not found", args[0]))
			} else {
				output.Error("event %s not found", args[0])
			}
			return fmt.Errorf("not found")
		}

		if asJSON {
			return output.JSON(ev)
		}

		fmt.Print(output.FormatEventLong(ev))
		return nil
	},
}

func init() {
	showCmd.Flags().Bool("json", false, "output as JSON")
	rootCmd.AddCommand(showCmd)
}
