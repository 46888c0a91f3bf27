package main

import (
	"errors"
	"fmt"

	"github.com/phanxgames/arbor"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export <tree.yaml>",
	Short: "Write the mind map to a PDF without opening a window",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringP("out", "o", "", "Output file (default: <title>_<timestamp>.pdf in the export directory)")
	exportCmd.Flags().Bool("expand-all", false, "Expand every node before exporting")
}

func runExport(cmd *cobra.Command, args []string) error {
	m, err := newMindMap(cmd, args[0])
	if err != nil {
		return err
	}
	if expand, _ := cmd.Flags().GetBool("expand-all"); expand {
		m.ExpandAll()
	}
	m.Reconciler().Settle()

	out, _ := cmd.Flags().GetString("out")
	if out != "" {
		if err := m.WritePDF(out); err != nil {
			return err
		}
		fmt.Printf("%s wrote %s\n", StatusIcon(true), out)
		return nil
	}

	var path string
	m.DownloadAsPDF(func(p string, e error) {
		path, err = p, e
	})
	m.Step(0)
	if err != nil {
		fmt.Printf("%s export failed\n", StatusIcon(false))
		if errors.Is(err, arbor.ErrEmptyViewport) {
			Warn.Println("  layout.width must be positive")
		}
		return err
	}
	fmt.Printf("%s wrote %s\n", StatusIcon(true), path)
	return nil
}
