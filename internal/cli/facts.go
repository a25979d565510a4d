package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	swarmcore "github.com/taskweave/swarmcore"
)

var factsAsOf string

var factsCmd = &cobra.Command{
	Use:   "facts [entity-type] [entity-id]",
	Short: "Query the shared fact store for an entity",
	Long:  "Query the shared fact store for the live facts about one entity,\nranked by confidence. Use --as-of for point-in-time queries against\na persistent (sqlite) store.",
	Args:  cobra.ExactArgs(2),
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

		var asOf time.Time
		if factsAsOf != "" {
			asOf, err = time.Parse(time.RFC3339, factsAsOf)
			if err != nil {
				printErr(fmt.Errorf("parse --as-of: %w", err))
				return err
			}
		}

		facts, err := sc.Memory().RetrieveFacts(args[0], args[1], asOf)
		if err != nil {
			printErr(err)
			return err
		}
		printHeader(fmt.Sprintf("facts for %s/%s", args[0], args[1]))
		if len(facts) == 0 {
			fmt.Println("(none)")
			return nil
		}
		for _, f := range facts {
			fmt.Printf("%.2f  %-20s = %-30s  source=%s created=%s\n",
				f.Confidence, f.Property, f.Value, f.SourceAgent,
				f.CreatedAt.Format(time.RFC3339))
		}
		return nil
	},
}

func init() {
	factsCmd.Flags().StringVar(&factsAsOf, "as-of", "", "RFC3339 instant for point-in-time retrieval")
}
