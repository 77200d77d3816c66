package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"ticlog/internal/output"
	"ticlog/internal/timeutil"
)

var syncCmd = &cobra.Command{
	Use:     "sync",
	Short:   "Push pending events to cloud storage",
	GroupID: "sync",
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

		res := newOrchestrator(st).SyncPendingEvents()
		if asJSON {
			return output.JSON(res)
		}
		if !res.Success {
			if res.ErrorCount > 0 {
				output.Warning("%s", res.Message)
				return nil
			}
			output.Error("%s", res.Message)
			return fmt.Errorf("sync failed")
		}
		output.Success("%s", res.Message)
		return nil
	},
}

var syncRetryCmd = &cobra.Command{
	Use:   "retry",
	Short: "Reset failed events and sync again",
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

		res := newOrchestrator(st).RetryFailedSyncs()
		if asJSON {
			return output.JSON(res)
		}
		if !res.Success {
			if res.ErrorCount > 0 {
				output.Warning("%s", res.Message)
				return nil
			}
			output.Error("%s", res.Message)
			return fmt.Errorf("retry failed")
		}
		output.Success("%s", res.Message)
		return nil
	},
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sync state",
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

		orch := newOrchestrator(st)
		state, err := orch.GetSyncState()
		if err != nil {
			output.Error("%v", err)
			return err
		}

		if asJSON {
			return output.JSON(state)
		}

		output.Info("%s", state.Message)
		output.Info("Pending: %d  Failed: %d", state.PendingCount, state.ErrorCount)
		if state.LastSyncAt != nil {
			output.Info("Last sync: %s", timeutil.RelativeNow(*state.LastSyncAt))
		}
		return nil
	},
}

func init() {
	syncCmd.Flags().Bool("json", false, "output as JSON")
	syncRetryCmd.Flags().Bool("json", false, "output as JSON")
	syncStatusCmd.Flags().Bool("json", false, "output as JSON")
	syncCmd.AddCommand(syncRetryCmd, syncStatusCmd)
	rootCmd.AddCommand(syncCmd)
}
