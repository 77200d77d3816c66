package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ticlog/internal/cloudconfig"
	"ticlog/internal/output"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	Short:   "Run periodic background sync until interrupted",
	GroupID: "sync",
	Long: `Starts a foreground process that pushes pending events to cloud
storage on a fixed interval. The interval comes from --interval, the
TICLOG_SYNC_INTERVAL env var, or the config file (default 30s).

A tick that arrives while a sync pass is still running is skipped, so
slow networks never stack passes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer st.Close()

		orch := newOrchestrator(st)

		interval, _ := cmd.Flags().GetDuration("interval")
		if interval <= 0 {
			interval = cloudconfig.SyncInterval()
		}

		// First pass immediately so a short-lived watch still syncs.
		res := orch.SyncPendingEvents()
		output.Info("%s", res.Message)

		if err := orch.StartAutoSync(interval); err != nil {
			output.Error("%v", err)
			return err
		}
		output.Info("Watching, syncing every %s (ctrl-c to stop)", interval)

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig

		orch.StopAutoSync()
		output.Info("Stopped")
		return nil
	},
}

func init() {
	watchCmd.Flags().Duration("interval", 0, "sync interval (overrides config)")
	rootCmd.AddCommand(watchCmd)
}
