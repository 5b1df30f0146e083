package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/conneroisu/profilar/internal/atomicwrite"
	"github.com/conneroisu/profilar/internal/compiler"
	"github.com/conneroisu/profilar/internal/config"
	"github.com/conneroisu/profilar/internal/profile"
)

var compileCmd = &cobra.Command{
	Use:   "compile <template> [destination]",
	Short: "Compile a single template document",
	Long: `Compile one template document through the full pipeline. The template path
is resolved through the profile's inheritance chain; with no destination the
compiled document is printed to stdout.

Examples:
  profilar compile commands/plan.md                    # Print compiled output
  profilar compile commands/plan.md out/plan.md        # Write compiled output
  profilar compile commands/plan.md --embed-phases     # Embed phase documents`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runCompile,
}

var (
	compileProfile     string
	compileEmbedPhases bool
)

func init() {
	rootCmd.AddCommand(compileCmd)

	compileCmd.Flags().StringVarP(&compileProfile, "profile", "p", "", "profile to resolve the template through")
	compileCmd.Flags().BoolVar(&compileEmbedPhases, "embed-phases", false, "compile in single-command mode with phases embedded")
}

func runCompile(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if compileProfile != "" {
		cfg.Profile = compileProfile
	}
	if cfg.Profile == "" {
		return fmt.Errorf("no profile selected (use --profile or set one in .profilar.yml)")
	}

	logger := newLogger()
	resolver := profile.NewResolver(cfg.BaseDir, logger)

	rel := args[0]
	res := resolver.ResolveFile(context.Background(), cfg.Profile, rel)
	if res.Status != profile.StatusFound {
		return fmt.Errorf("cannot resolve %s through profile %q: %s", rel, cfg.Profile, res.Status)
	}

	writer := atomicwrite.NewWriter(cfg.DryRun, logger)
	wireCleanup(writer)
	defer writer.Cleanup()

	comp := compiler.New(resolver, writer, logger)
	opts := compiler.Options{
		Roles:       cfg.Roles,
		EmbedPhases: compileEmbedPhases || cfg.Flags.SingleCommand,
	}

	if len(args) == 2 {
		if err := comp.CompileDocument(context.Background(), res.Path, args[1], cfg.Context(), opts); err != nil {
			return err
		}
		fmt.Printf("✅ Compiled %s -> %s\n", rel, args[1])

		return nil
	}

	data, err := os.ReadFile(res.Path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", res.Path, err)
	}

	fmt.Println(comp.Compile(context.Background(), string(data), cfg.Context(), opts))

	return nil
}
