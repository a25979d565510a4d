package cli

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	swarmcore "github.com/taskweave/swarmcore"
	"github.com/taskweave/swarmcore/core"
	"github.com/taskweave/swarmcore/swarm"
)

var runWait time.Duration

var runCmd = &cobra.Command{
	Use:   "run [goal]",
	Short: "Start a run for a goal and wait for its outcome",
	Args:  cobra.ExactArgs(1),
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
		bindRecordingSteps(sc)

		goal := args[0]
		runID, err := sc.Runner().Start(goal)
		if err != nil {
			printErr(err)
			return err
		}
		printHeader("run started")
		fmt.Printf("id:   %s\n", runID)
		fmt.Printf("goal: %s\n", goal)

		deadline := time.Now().Add(runWait)
		for {
			run, err := sc.Runner().Status(runID)
			if err != nil {
				printErr(err)
				return err
			}
			if run.Status.IsTerminal() {
				printRun(run)
				return nil
			}
			if time.Now().After(deadline) {
				color.Yellow("still %s after %s, giving up the wait", run.Status, runWait)
				return nil
			}
			time.Sleep(50 * time.Millisecond)
		}
	},
}

func init() {
	runCmd.Flags().DurationVar(&runWait, "wait", 30*time.Second, "how long to wait for the run to finish")
}

// bindRecordingSteps binds a minimal step to every configured agent: it
// records the goal as a fact and concludes. The CLI exercises the run control
// surface; real deployments embed the library and bind their own steps.
func bindRecordingSteps(sc *swarmcore.Swarmcore) {
	for _, name := range sc.Registry().Names() {
		agent := name
		sc.BindStep(agent, func(s *swarm.StepContext) (swarm.StepResult, error) {
			if _, err := s.StoreFact(core.MemoryFact{
				EntityType: "goal",
				EntityID:   s.RunID,
				Property:   "observed",
				Value:      s.Goal,
				Confidence: 1,
			}); err != nil {
				return swarm.StepResult{}, err
			}
			return swarm.Final(fmt.Sprintf("%s handled: %s", agent, s.Goal)), nil
		})
	}
}

func printRun(run core.AgentRun) {
	switch run.Status {
	case core.RunCompleted:
		color.Green("status: %s", run.Status)
	case core.RunFailed:
		color.Red("status: %s", run.Status)
	default:
		color.Yellow("status: %s", run.Status)
	}
	if run.CurrentAgent != "" {
		fmt.Printf("agent:  %s\n", run.CurrentAgent)
	}
	if run.Summary != "" {
		fmt.Printf("result: %s\n", run.Summary)
	}
	if run.FinishedAt != nil {
		fmt.Printf("took:   %s\n", run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
	}
}
