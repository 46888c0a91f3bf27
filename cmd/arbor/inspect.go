package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/phanxgames/arbor"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <tree.yaml>",
	Short: "Validate a tree file and print its nodes with their layout positions",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().Bool("collapsed", false, "Lay out the initial collapsed view instead of the fully expanded tree")
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	data, err := arbor.ReadDataFile(args[0])
	if err != nil {
		fmt.Printf("%s %s\n", StatusIcon(false), args[0])
		return err
	}
	var opts []arbor.BuildOption
	if cfg.Layout.RootExpanded {
		opts = append(opts, arbor.WithRootExpanded())
	}
	tree, err := arbor.Build(data, opts...)
	if err != nil {
		fmt.Printf("%s %s\n", StatusIcon(false), args[0])
		return err
	}
	if collapsed, _ := cmd.Flags().GetBool("collapsed"); !collapsed {
		tree.ExpandAll()
	}
	arbor.NewLayout(arbor.LayoutConfig{
		DepthSpacing: cfg.Layout.DepthSpacing,
		Breadth:      cfg.Layout.InnerHeight(),
	}).Apply(tree.Root())

	Banner(args[0])
	visible := make(map[uint32]bool)
	for _, n := range tree.VisibleNodes(nil) {
		visible[n.ID] = true
	}
	var rows [][]string
	maxDepth := 0
	tree.Walk(func(n *arbor.TreeNode) {
		maxDepth = max(maxDepth, n.Depth)
		if !visible[n.ID] {
			return
		}
		name := strings.Repeat("  ", n.Depth) + n.Name
		state := ""
		switch {
		case n.Expanded():
			state = "expanded"
		case n.Collapsed():
			state = Warn.Sprintf("collapsed (%d)", len(n.Children()))
		}
		rows = append(rows, []string{
			strconv.FormatUint(uint64(n.ID), 10),
			depthColors[n.Depth%len(depthColors)].Sprint(name),
			fmt.Sprintf("%.1f", n.X),
			fmt.Sprintf("%.1f", n.Y),
			state,
		})
	})
	Table([]string{"ID", "NAME", "X", "Y", "STATE"}, rows)
	fmt.Printf("\n%s %d nodes, %d shown, depth %d\n", StatusIcon(true), tree.Len(), len(rows), maxDepth)
	return nil
}
