package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"ticlog/internal/cloudconfig"
	"ticlog/internal/output"
	"ticlog/internal/remote"
)

var configCmd = &cobra.Command{
	Use:     "config",
	Short:   "Manage cloud storage configuration",
	GroupID: "sync",
}

var configSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set cloud storage connection settings",
	Long: `Stores the document store connection settings at
~/.config/ticlog/config.json. Flags fill fields directly; the master key
is prompted without echo when not given via --key.

Environment variables TICLOG_COSMOS_ENDPOINT, TICLOG_COSMOS_KEY,
TICLOG_COSMOS_DATABASE and TICLOG_COSMOS_CONTAINER override the file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cloudconfig.LoadFile()
		if err != nil {
			output.Error("%v", err)
			return err
		}

		if v, _ := cmd.Flags().GetString("endpoint"); v != "" {
			cfg.Cloud.Endpoint = strings.TrimRight(v, "/")
		}
		if v, _ := cmd.Flags().GetString("database"); v != "" {
			cfg.Cloud.Database = v
		}
		if v, _ := cmd.Flags().GetString("container"); v != "" {
			cfg.Cloud.Container = v
		}
		if v, _ := cmd.Flags().GetString("interval"); v != "" {
			cfg.SyncInterval = v
		}

		if v, _ := cmd.Flags().GetString("key"); v != "" {
			cfg.Cloud.Key = v
		} else if cfg.Cloud.Key == "" {
			key, err := promptKey()
			if err != nil {
				output.Error("read key: %v", err)
				return err
			}
			cfg.Cloud.Key = key
		}

		if err := cloudconfig.SaveFile(cfg); err != nil {
			output.Error("save config: %v", err)
			return err
		}
		output.Success("Configuration saved")

		if cfg.Cloud.Complete() {
			client := remote.New()
			if client.Initialize(cfg.Cloud) {
				output.Success("Cloud storage reachable")
			} else {
				output.Warning("Cloud storage not reachable with these settings")
			}
		}
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective cloud configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := cloudconfig.LoadCloud()

		output.Info("Endpoint:  %s", orUnset(cfg.Endpoint))
		output.Info("Database:  %s", orUnset(cfg.Database))
		output.Info("Container: %s", orUnset(cfg.Container))
		output.Info("Key:       %s", maskKey(cfg.Key))
		output.Info("Interval:  %s", cloudconfig.SyncInterval())
		return nil
	},
}

var configClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored cloud configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cloudconfig.Clear(); err != nil {
			output.Error("%v", err)
			return err
		}
		output.Success("Configuration cleared")
		return nil
	},
}

// promptKey reads the master key without echoing. Falls back to a plain
// line read when stdin is not a terminal (piped input in scripts).
func promptKey() (string, error) {
	fmt.Fprint(os.Stderr, "Master key: ")
	if term.IsTerminal(int(os.Stdin.Fd())) {
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(raw)), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func orUnset(v string) string {
	if v == "" {
		return "(unset)"
	}
	return v
}

func maskKey(key string) string {
	if key == "" {
		return "(unset)"
	}
	if len(key) <= 8 {
		return "********"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func init() {
	configSetCmd.Flags().String("endpoint", "", "document store endpoint URL")
	configSetCmd.Flags().String("key", "", "base64 master key (prompted when omitted)")
	configSetCmd.Flags().String("database", "", "database name")
	configSetCmd.Flags().String("container", "", "container name")
	configSetCmd.Flags().String("interval", "", "background sync interval (e.g. 30s, 5m)")
	configCmd.AddCommand(configSetCmd, configShowCmd, configClearCmd)
	rootCmd.AddCommand(configCmd)
}
