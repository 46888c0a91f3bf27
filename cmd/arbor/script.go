package main

import (
	"fmt"
	"os"

	"github.com/phanxgames/arbor"
	"github.com/spf13/cobra"
)

var scriptCmd = &cobra.Command{
	Use:   "script <tree.yaml> <script.json>",
	Short: "Run a JSON test script headlessly and report failed steps",
	Long: `Steps the mind map at a fixed rate without a window until the script
finishes. Screenshot steps need a window; use "arbor view --script" for those.`,
	Args: cobra.ExactArgs(2),
	RunE: runScript,
}

func init() {
	rootCmd.AddCommand(scriptCmd)
	scriptCmd.Flags().Int("max-frames", 3600, "Give up after this many steps")
	scriptCmd.Flags().Float64("tps", 60, "Simulated steps per second")
}

func runScript(cmd *cobra.Command, args []string) error {
	m, err := newMindMap(cmd, args[0])
	if err != nil {
		return err
	}
	src, err := os.ReadFile(args[1])
	if err != nil {
		return err
	}
	runner, err := arbor.LoadTestScript(src)
	if err != nil {
		return fmt.Errorf("%s: %w", args[1], err)
	}
	m.SetTestRunner(runner)

	maxFrames, _ := cmd.Flags().GetInt("max-frames")
	tps, _ := cmd.Flags().GetFloat64("tps")
	if tps <= 0 {
		tps = 60
	}
	dt := float32(1 / tps)

	frames := 0
	for ; frames < maxFrames && !runner.Done(); frames++ {
		m.Step(dt)
	}
	if !runner.Done() {
		fmt.Printf("%s script did not finish within %d frames\n", StatusIcon(false), maxFrames)
		return fmt.Errorf("script timed out")
	}
	if err := runner.Err(); err != nil {
		fmt.Printf("%s script finished with failures after %d frames\n", StatusIcon(false), frames)
		return err
	}
	fmt.Printf("%s script passed in %d frames\n", StatusIcon(true), frames)
	return nil
}
