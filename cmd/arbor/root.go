package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/phanxgames/arbor"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "arbor",
	Short: "Arbor draws a hierarchy as an interactive collapsible tree",
	Long: `Arbor reads a YAML or JSON hierarchy and shows it as a mind map:
click a node to show or hide its children, drag the background to pan,
scroll to zoom, and export the drawing as a PDF.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, Bad.Sprint("error: ")+err.Error())
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "TOML configuration file")
	rootCmd.PersistentFlags().Bool("debug", false, "Log reconciliation stats and tree warnings")
}

// loadConfig reads --config, or returns the defaults.
func loadConfig(cmd *cobra.Command) (*arbor.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return arbor.DefaultConfig(), nil
	}
	return arbor.LoadConfig(path)
}

// newLogger writes text logs to stderr, at Debug level with --debug.
func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// newMindMap loads the data file and builds a mind map with the shared
// flags applied.
func newMindMap(cmd *cobra.Command, dataPath string, opts ...arbor.Option) (*arbor.MindMap, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	data, err := arbor.ReadDataFile(dataPath)
	if err != nil {
		return nil, err
	}
	log := newLogger(cmd)
	m, err := arbor.New(data, append([]arbor.Option{arbor.WithConfig(cfg), arbor.WithLogger(log)}, opts...)...)
	if err != nil {
		return nil, err
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		m.SetDebugMode(true)
	}
	return m, nil
}
