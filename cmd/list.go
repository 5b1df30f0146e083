package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/profilar/internal/config"
	"github.com/conneroisu/profilar/internal/profile"
)

var listCmd = &cobra.Command{
	Use:   "list [subdirectory]",
	Short: "List profiles, or the documents a profile resolves",
	Long: `Without arguments, list the profiles available in the source tree. With a
subdirectory and --profile, list every document the profile resolves there
across its inheritance chain, honoring exclusion patterns.

Examples:
  profilar list                            # List available profiles
  profilar list standards -p default       # Documents default resolves under standards/
  profilar list commands -p minimal`,
	Args: cobra.MaximumNArgs(1),
	RunE: runList,
}

var listProfile string

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&listProfile, "profile", "p", "", "profile to resolve through")
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if listProfile != "" {
		cfg.Profile = listProfile
	}

	if len(args) == 0 {
		names, err := profile.List(cfg.BaseDir)
		if err != nil {
			return fmt.Errorf("cannot list profiles under %s: %w", cfg.BaseDir, err)
		}

		fmt.Printf("Found %d profiles:\n", len(names))
		for _, name := range names {
			p := profile.Load(cfg.BaseDir, name)
			if p.Parent != "" {
				fmt.Printf("  %s (inherits from %s)\n", name, p.Parent)
			} else {
				fmt.Printf("  %s\n", name)
			}
		}

		return nil
	}

	if cfg.Profile == "" {
		return fmt.Errorf("listing documents requires a profile (use --profile)")
	}

	logger := newLogger()
	resolver := profile.NewResolver(cfg.BaseDir, logger)

	paths, status := resolver.ResolveFiles(context.Background(), cfg.Profile, args[0])
	if status != profile.StatusFound {
		return fmt.Errorf("cannot enumerate %s for profile %q: %s", args[0], cfg.Profile, status)
	}

	fmt.Printf("Profile %q resolves %d documents under %s/:\n", cfg.Profile, len(paths), args[0])
	for _, p := range paths {
		fmt.Printf("  %s\n", p)
	}

	return nil
}
