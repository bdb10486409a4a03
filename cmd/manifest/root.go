// Root command and global flags for the manifest CLI.
package main

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/manifest/internal/paths"
	"github.com/mesh-intelligence/manifest/internal/server"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// Global flag values.
var (
	flagConfigDir string
	flagDataDir   string
	flagJSON      bool
)

// configDataDir and configAuthor hold values loaded from config.yaml.
// Set by PersistentPreRunE so all subcommands can use them.
var (
	configDataDir string
	configAuthor  string
)

var rootCmd = &cobra.Command{
	Use:     "manifest",
	Short:   "Manifest is a living feature documentation store",
	Version: server.Version,
	Long: `Manifest keeps a permanent tree of features with acceptance criteria,
runs ephemeral agent work sessions against leaf features, and squashes
each completed session into an append-only feature history.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configDir, err := resolveConfigDir()
		if err != nil {
			return err
		}

		cfg, err := loadConfig(configDir)
		if err != nil {
			return err
		}

		configDataDir = cfg.GetString(cfgKeyDataDir)
		configAuthor = cfg.GetString(cfgKeyAuthor)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default: $(CWD)/.manifest)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (default: $(CWD)/.manifest-db)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(featureCmd)
	rootCmd.AddCommand(criterionCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(historyCmd)
}

// resolveDataDir returns the data directory path with precedence
// --data-dir flag > config.yaml data_dir > MANIFEST_DATA_DIR env >
// default $(CWD)/.manifest-db.
func resolveDataDir() (string, error) {
	return paths.ResolveDataDir(flagDataDir, configDataDir)
}

// resolveConfigDir returns the configuration directory with precedence
// --config-dir flag > MANIFEST_CONFIG_DIR env > DefaultConfigDir().
func resolveConfigDir() (string, error) {
	return paths.ResolveConfigDir(flagConfigDir)
}
