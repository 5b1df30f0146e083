package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/conneroisu/profilar/internal/atomicwrite"
	"github.com/conneroisu/profilar/internal/config"
	"github.com/conneroisu/profilar/internal/installer"
	"github.com/conneroisu/profilar/internal/profile"
	"github.com/conneroisu/profilar/internal/version"
	"github.com/conneroisu/profilar/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the source tree and reinstall on changes",
	Long: `Watch the profile source tree and rerun the installation whenever template
documents change. Changes are debounced so a burst of saves triggers one
rebuild.

Examples:
  profilar watch --profile default
  profilar watch --profile default --dry-run   # Report writes without performing them`,
	RunE: runWatch,
}

var watchProfile string

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVarP(&watchProfile, "profile", "p", "", "profile to install on changes")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if watchProfile != "" {
		cfg.Profile = watchProfile
	}
	if cfg.Profile == "" {
		return fmt.Errorf("no profile selected (use --profile or set one in .profilar.yml)")
	}

	logger := newLogger()
	writer := atomicwrite.NewWriter(cfg.DryRun, logger)
	wireCleanup(writer)
	defer writer.Cleanup()

	resolver := profile.NewResolver(cfg.BaseDir, logger)
	inst := installer.New(resolver, writer, version.GetVersion(), logger)

	install := func() {
		result, err := inst.Install(context.Background(), installer.Options{
			Context:     cfg.Context(),
			InstallDir:  cfg.InstallDir,
			Roles:       cfg.Roles,
			EmbedPhases: cfg.Flags.SingleCommand,
			Force:       true,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "❌ Rebuild failed: %v\n", err)
			return
		}
		fmt.Printf("🔄 Rebuilt: %d compiled, %d copied, %d warnings\n",
			len(result.Compiled), len(result.Copied), len(result.Warnings))
	}

	w, err := watcher.New(time.Duration(cfg.Watch.DebounceMs)*time.Millisecond, func(paths []string) {
		fmt.Printf("📁 %d files changed\n", len(paths))
		install()
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Close()

	profilesRoot := filepath.Join(cfg.BaseDir, "profiles")
	if err := w.AddRecursive(profilesRoot); err != nil {
		return fmt.Errorf("failed to watch %s: %w", profilesRoot, err)
	}

	// Initial build before settling into the watch loop.
	install()

	fmt.Printf("👀 Watching %s for changes (Ctrl+C to stop)...\n", profilesRoot)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w.Start(ctx)

	return nil
}
