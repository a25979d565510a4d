package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	swarmcore "github.com/taskweave/swarmcore"
)

var consolidateCmd = &cobra.Command{
	Use:   "consolidate",
	Short: "Run one consolidation sweep over the fact store",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			printErr(err)
			return err
		}
		sc, err := swarmcore.FromConfig(cfg)
		if err != nil {
			printErr(err)
			return err
		}
		defer sc.Close()

		stats, err := sc.Consolidator().Consolidate()
		if err != nil {
			printErr(err)
			return err
		}
		printHeader("consolidation sweep")
		fmt.Printf("removed: %d expired\n", stats.Removed)
		fmt.Printf("merged:  %d duplicates\n", stats.Merged)
		fmt.Printf("pruned:  %d low-confidence\n", stats.Pruned)
		return nil
	},
}
