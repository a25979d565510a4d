package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/taskweave/swarmcore/registry"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List the configured agents and their routing categories",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			printErr(err)
			return err
		}
		printHeader("agents")
		for _, a := range cfg.Agents {
			handoff := " "
			if a.CanHandoff {
				handoff = "→"
			}
			line := fmt.Sprintf("%s %-14s role=%-12s", handoff, a.Name, a.Role)
			if len(a.Tools) > 0 {
				line += " tools=" + strings.Join(a.Tools, ",")
			}
			if registry.Category(a.Role) == registry.CategoryGeneralist {
				color.Green("%s", line)
			} else {
				fmt.Println(line)
			}
		}
		return nil
	},
}
