// Package cli implements the swarmctl command line interface: a thin
// in-process wrapper over the orchestration core for starting runs,
// inspecting agents and facts, and triggering consolidation sweeps.
package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/taskweave/swarmcore/config"
)

var (
	// version can be overridden at build time via:
	// go build -ldflags "-X github.com/taskweave/swarmcore/internal/cli.version=1.2.3"
	version = "0.3.0"

	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "swarmctl",
	Short: "swarmctl - multi-agent orchestration control",
	Long:  "Control surface for the swarmcore orchestration engine:\nstart and inspect runs, list agents, query shared memory and\ntrigger consolidation sweeps.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(agentsCmd)
	rootCmd.AddCommand(factsCmd)
	rootCmd.AddCommand(consolidateCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("swarmctl %s\n", version)
	},
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	return cfg, nil
}

func printHeader(title string) {
	color.Cyan("%s", title)
}

func printErr(err error) {
	color.Red("error: %v", err)
}
