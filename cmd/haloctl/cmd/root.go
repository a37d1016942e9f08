package cmd

import (
	"fmt"
	"os"

	"github.com/halolight/halolight/cmd/haloctl/cmd/auth"
	"github.com/halolight/halolight/cmd/haloctl/cmd/layout"
	"github.com/halolight/halolight/cmd/haloctl/cmd/tabs"
	"github.com/halolight/halolight/cmd/haloctl/internal/app"
	"github.com/halolight/halolight/cmd/haloctl/internal/config"
	"github.com/halolight/halolight/cmd/haloctl/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	configFile string
	provider   *app.Provider
)

var rootCmd = &cobra.Command{
	Use:   "haloctl",
	Short: "HaloLight admin console authorization tooling",
	Long: `haloctl manages the authorization state of the HaloLight admin console:
signed-in accounts, role and permission checks, the tab bar and the dashboard
layout. It can also serve the guarded admin route table over HTTP.

State is persisted to the configured storage backend (file, sqlite, postgres
or memory). Settings are read from flags, HALO_ environment variables and
~/.halolight/config.yaml.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		v := viper.New()
		bindFlag(v, "debug", cmd, "debug")
		bindFlag(v, "storage.backend", cmd, "storage-backend")
		bindFlag(v, "storage.path", cmd, "storage-path")
		bindFlag(v, "storage.dsn", cmd, "storage-dsn")
		bindFlag(v, "log_format", cmd, "log-format")

		cfg, err := config.Load(v, configFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		logger := logging.New(os.Stderr, cfg.LogFormat, cfg.Debug)
		provider = app.NewProvider(cfg, logger)

		ctx := config.InjectConfig(cmd.Context(), cfg)
		ctx = app.InjectProvider(ctx, provider)
		cmd.SetContext(ctx)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if provider == nil {
			return nil
		}
		return provider.Close()
	},
}

func bindFlag(v *viper.Viper, key string, cmd *cobra.Command, name string) {
	if f := cmd.Flags().Lookup(name); f != nil {
		_ = v.BindPFlag(key, f)
	}
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default ~/.halolight/config.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging (env: HALO_DEBUG)")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format: text or json (env: HALO_LOG_FORMAT)")
	rootCmd.PersistentFlags().String("storage-backend", "file", "Storage backend: file, sqlite, postgres or memory (env: HALO_STORAGE_BACKEND)")
	rootCmd.PersistentFlags().String("storage-path", "", "State file for the file backend (env: HALO_STORAGE_PATH)")
	rootCmd.PersistentFlags().String("storage-dsn", "", "Database DSN for the sqlite and postgres backends (env: HALO_STORAGE_DSN)")

	rootCmd.AddCommand(auth.AuthCmd)
	rootCmd.AddCommand(tabs.TabsCmd)
	rootCmd.AddCommand(layout.LayoutCmd)
}
