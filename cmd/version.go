package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/profilar/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		info := version.GetBuildInfo()
		fmt.Printf("profilar %s\n", info.Version)
		fmt.Printf("  commit:  %s\n", info.GitCommit)
		fmt.Printf("  go:      %s\n", info.GoVersion)
		fmt.Printf("  platform: %s\n", info.Platform)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
