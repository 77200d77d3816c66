package cmd

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"ticlog/internal/output"
	"ticlog/internal/tui/monitor"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Live TUI dashboard over the event log",
	Long: `Launch a live-updating dashboard showing recent events and sync state.

Key bindings:
  r  Force refresh
  s  Trigger a sync pass
  q  Quit`,
	GroupID: "system",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer st.Close()

		interval, _ := cmd.Flags().GetDuration("interval")
		if interval < 500*time.Millisecond {
			interval = 2 * time.Second
		}

		model := monitor.NewModel(st, newOrchestrator(st), interval, version)

		p := tea.NewProgram(model, tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("error running monitor: %w", err)
		}
		return nil
	},
}

func init() {
	monitorCmd.Flags().Duration("interval", 2*time.Second, "refresh interval")
	rootCmd.AddCommand(monitorCmd)
}
