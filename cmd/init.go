package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"ticlog/internal/output"
	"ticlog/internal/store"
)

var initCmd = &cobra.Command{
	Use:     "init",
	Short:   "Initialize the local event database",
	Long:    `Creates the .ticlog directory and SQLite database under the data dir.`,
	GroupID: "system",
	RunE: func(cmd *cobra.Command, args []string) error {
		baseDir := getBaseDir()

		if _, err := os.Stat(filepath.Join(baseDir, ".ticlog")); err == nil {
			output.Warning(".ticlog/ already exists")
			return nil
		}

		st, err := store.Initialize(baseDir)
		if err != nil {
			output.Error("failed to initialize database: %v", err)
			return err
		}
		defer st.Close()

		fmt.Println("INITIALIZED .ticlog/")
		output.Info("Log your first event with: ticlog log")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
