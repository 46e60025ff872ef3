// Package cmd implements the evidence command-line interface.
package cmd

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jonesrussell/north-cloud/evidence/cmd/analyze"
	"github.com/jonesrussell/north-cloud/evidence/cmd/run"
	"github.com/jonesrussell/north-cloud/evidence/cmd/serve"
)

// Version is set at build time with -ldflags "-X .../cmd.Version=...".
var Version = "dev"

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	// Debug enables debug logging for all commands.
	Debug bool

	rootCmd = &cobra.Command{
		Use:   "evidence",
		Short: "Find and classify evidence of technology use on company websites",
		Long: `evidence crawls company websites, extracts passages around technology
keywords, dates them and classifies whether they show real use of the technology.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	_ = godotenv.Load()

	if err := bindFlags(); err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}

	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is $EVIDENCE_CONFIG or ./config.yml)")
	rootCmd.PersistentFlags().BoolVar(&Debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "evidence version %s\n", version())
		},
	})

	rootCmd.AddCommand(run.Command())
	rootCmd.AddCommand(analyze.Command())
	rootCmd.AddCommand(serve.Command())
}

// bindFlags exposes the persistent flags through viper so subcommands read
// them without package globals.
func bindFlags() error {
	viper.SetEnvPrefix("EVIDENCE")
	viper.AutomaticEnv()

	if err := viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config")); err != nil {
		return fmt.Errorf("failed to bind config flag: %w", err)
	}
	if err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		return fmt.Errorf("failed to bind debug flag: %w", err)
	}
	return nil
}

func version() string {
	if Version != "dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return Version
}
