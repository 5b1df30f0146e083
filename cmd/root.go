// Package cmd provides the command-line interface for Profilar with
// configuration management supporting multiple configuration sources.
//
// Configuration System:
//
//	The CLI supports flexible configuration through multiple sources with clear precedence:
//	1. Command-line flags (--config, --base, etc.) - highest priority
//	2. PROFILAR_CONFIG_FILE environment variable - custom config file path
//	3. Individual environment variables (PROFILAR_BASE_DIR, etc.)
//	4. Configuration files (.profilar.yml) - lowest priority
package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/profilar/internal/atomicwrite"
	"github.com/conneroisu/profilar/internal/logging"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "profilar",
	Short: "A profile-based template compiler for agent instruction sets",
	Long: `Profilar compiles a tree of inheritable profiles - bundles of markdown
standards, workflows, protocols, and command templates - into fully-resolved
artifact documents for consumption by an external tool.

Key Features:
  • Profile inheritance with per-profile exclusion patterns
  • Conditional compilation blocks ({{IF ...}} / {{UNLESS ...}})
  • Recursive workflow/protocol/standards reference expansion
  • Atomic crash-safe artifact writes
  • Install manifests with drift detection

Quick Start:
  profilar install --profile default   Install a profile
  profilar compile <template>          Compile a single document
  profilar list                        List available profiles
  profilar watch                       Recompile on source changes

Documentation: https://github.com/conneroisu/profilar`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .profilar.yml, can also use PROFILAR_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("base", "", "source tree containing profiles/ (default \".\")")
	rootCmd.PersistentFlags().String("install-dir", "", "installation root for compiled artifacts (default \".profilar\")")
	rootCmd.PersistentFlags().Bool("dry-run", false, "report what would be written without touching the filesystem")

	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("base_dir", rootCmd.PersistentFlags().Lookup("base"))
	viper.BindPFlag("install_dir", rootCmd.PersistentFlags().Lookup("install-dir"))
	viper.BindPFlag("dry_run", rootCmd.PersistentFlags().Lookup("dry-run"))
}

// initConfig initializes the configuration system with support for multiple
// config sources. Priority (highest to lowest): --config flag,
// PROFILAR_CONFIG_FILE, then .profilar.yml in the current directory.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfig := os.Getenv("PROFILAR_CONFIG_FILE"); envConfig != "" {
		viper.SetConfigFile(envConfig)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".profilar")
	}

	viper.SetEnvPrefix("PROFILAR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "Warning: failed to read config file: %v\n", err)
		}
	}
}

// newLogger builds the CLI logger from the configured level.
func newLogger() logging.Logger {
	return logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.ParseLevel(viper.GetString("log-level")),
		Format: "text",
		Output: os.Stderr,
	})
}

// wireCleanup sweeps the writer's in-flight temp files when the process is
// interrupted or terminated mid-write.
func wireCleanup(writer *atomicwrite.Writer) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigs
		writer.Cleanup()
		os.Exit(1)
	}()
}
