package cmd

import (
	"github.com/spf13/cobra"

	"ticlog/internal/output"
)

var deleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Short:   "Delete an event",
	Aliases: []string{"rm"},
	Long: `Deletes an event locally. If the event has already replicated to the
cloud and the remote is reachable, the remote copy is removed too.
--local-only skips the remote delete.`,
	GroupID: "core",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer st.Close()

		localOnly, _ := cmd.Flags().GetBool("local-only")

		if localOnly {
			if err := st.DeleteEvent(args[0]); err != nil {
				output.Error("%v", err)
				return err
			}
		} else {
			if err := newOrchestrator(st).DeleteEvent(args[0]); err != nil {
				output.Error("%v", err)
				return err
			}
		}

		output.Success("Deleted %s", output.ShortID(args[0]))
		return nil
	},
}

func init() {
	deleteCmd.Flags().Bool("local-only", false, "delete locally without touching the remote")
	rootCmd.AddCommand(deleteCmd)
}
