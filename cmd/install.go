package cmd

import (
	"context"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/conneroisu/profilar/internal/atomicwrite"
	"github.com/conneroisu/profilar/internal/config"
	"github.com/conneroisu/profilar/internal/installer"
	"github.com/conneroisu/profilar/internal/profile"
	"github.com/conneroisu/profilar/internal/version"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Compile a profile and install its artifacts",
	Long: `Compile every document of a profile through the full pipeline and install
the resolved artifacts into the installation root.

Examples:
  profilar install --profile default          # Install the default profile
  profilar install                            # Pick a profile interactively
  profilar install --force                    # Reinstall even when up to date
  profilar install --dry-run                  # Show what would be written`,
	RunE: runInstall,
}

var (
	installProfile string
	installForce   bool
)

func init() {
	rootCmd.AddCommand(installCmd)

	installCmd.Flags().StringVarP(&installProfile, "profile", "p", "", "profile to install")
	installCmd.Flags().BoolVar(&installForce, "force", false, "reinstall even when the existing installation is current")
}

func runInstall(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if installProfile != "" {
		cfg.Profile = installProfile
	}
	if cfg.Profile == "" {
		selected, err := selectProfile(cfg.BaseDir)
		if err != nil {
			return err
		}
		cfg.Profile = selected
	}

	logger := newLogger()
	writer := atomicwrite.NewWriter(cfg.DryRun, logger)
	wireCleanup(writer)
	defer writer.Cleanup()

	resolver := profile.NewResolver(cfg.BaseDir, logger)
	inst := installer.New(resolver, writer, version.GetVersion(), logger)

	fmt.Printf("📦 Installing profile %q into %s...\n", cfg.Profile, cfg.InstallDir)

	result, err := inst.Install(context.Background(), installer.Options{
		Context:     cfg.Context(),
		InstallDir:  cfg.InstallDir,
		Roles:       cfg.Roles,
		EmbedPhases: cfg.Flags.SingleCommand,
		Force:       installForce,
	})
	if err != nil {
		return fmt.Errorf("installation failed: %w", err)
	}

	if result.Skipped {
		fmt.Println("✅ Installation is already up to date (use --force to reinstall)")
		return nil
	}

	fmt.Printf("✅ Installed %d compiled and %d copied documents\n",
		len(result.Compiled), len(result.Copied))

	if len(result.Warnings) > 0 {
		fmt.Printf("⚠️  %d warnings:\n", len(result.Warnings))
		for _, w := range result.Warnings {
			fmt.Printf("   - %s\n", w)
		}
	}

	return nil
}

// selectProfile prompts for a profile when none was configured.
func selectProfile(baseDir string) (string, error) {
	names, err := profile.List(baseDir)
	if err != nil || len(names) == 0 {
		return "", fmt.Errorf("no profiles found under %s/profiles", baseDir)
	}

	if len(names) == 1 {
		return names[0], nil
	}

	var selected string
	err = huh.NewSelect[string]().
		Title("Select a profile to install").
		Options(huh.NewOptions(names...)...).
		Value(&selected).
		Run()
	if err != nil {
		return "", fmt.Errorf("profile selection cancelled: %w", err)
	}

	return selected, nil
}
