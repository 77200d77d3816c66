package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"ticlog/internal/models"
	"ticlog/internal/output"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List events, merged with cloud history when available",
	Aliases: []string{"ls"},
	Long: `Lists events newest first. By default the listing merges local and
remote history (local wins on conflict); a failed remote fetch silently
falls back to local-only. Use --local to skip the remote entirely.`,
	GroupID: "core",
	RunE: func(cmd *cobra.Command, args []string) error {
		localOnly, _ := cmd.Flags().GetBool("local")
		statusFilter, _ := cmd.Flags().GetString("status")
		asJSON, _ := cmd.Flags().GetBool("json")
		limit, _ := cmd.Flags().GetInt("limit")

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

		var events []models.Event
		switch {
		case statusFilter != "":
			if !models.ValidSyncStatus(statusFilter) {
				if asJSON {
					output.JSONError(output.ErrCodeInvalidInput,
						fmt.Sprintf("invalid status %q (valid: pending, synced, error)", statusFilter))
				} else {
					output.Error("invalid status %q (valid: pending, synced, error)", statusFilter)
				}
				return fmt.Errorf("invalid sync status")
			}
			events, err = st.ListByStatus(models.SyncStatus(statusFilter))
		case localOnly:
			events, err = st.ListAll()
		default:
			events, err = newOrchestrator(st).GetMergedEvents()
		}
		if err != nil {
			if asJSON {
				output.JSONError(output.ErrCodeDatabaseError, err.Error())
			} else {
				output.Error("%v", err)
			}
			return err
		}

		if limit > 0 && len(events) > limit {
			events = events[:limit]
		}

		if asJSON {
			return output.JSON(events)
		}

		if len(events) == 0 {
			output.Info("No events logged yet")
			return nil
		}

		now := time.Now().UTC()
		for i := range events {
			fmt.Println(output.FormatEventShort(&events[i], now))
		}
		return nil
	},
}

func init() {
	listCmd.Flags().Bool("local", false, "list local events only, skip the remote")
	listCmd.Flags().String("status", "", "filter local events by sync status")
	listCmd.Flags().Bool("json", false, "output as JSON")
	listCmd.Flags().IntP("limit", "n", 0, "show at most n events")
	rootCmd.AddCommand(listCmd)
}
