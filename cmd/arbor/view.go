package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/phanxgames/arbor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var viewCmd = &cobra.Command{
	Use:   "view <tree.yaml>",
	Short: "Open the mind map in a window",
	Long: `Opens an interactive window. Keys: +/- zoom, R reset, E expand all,
C collapse all, P save a PDF to the export directory.`,
	Args: cobra.ExactArgs(1),
	RunE: runView,
}

func init() {
	rootCmd.AddCommand(viewCmd)
	viewCmd.Flags().Bool("watch", false, "Reload the tree when the file changes")
	viewCmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")
	viewCmd.Flags().Bool("fps", false, "Show an FPS overlay")
	viewCmd.Flags().String("script", "", "Run a JSON test script (screenshots are written to ./screenshots)")
}

func runView(cmd *cobra.Command, args []string) error {
	log := newLogger(cmd)
	var opts []arbor.Option

	if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
		reg := prometheus.NewRegistry()
		opts = append(opts, arbor.WithMetrics(arbor.NewMetrics(reg)))

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			log.Info("serving metrics", "addr", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server failed", "error", err)
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
	}

	m, err := newMindMap(cmd, args[0], opts...)
	if err != nil {
		return err
	}

	if scriptPath, _ := cmd.Flags().GetString("script"); scriptPath != "" {
		src, err := os.ReadFile(scriptPath)
		if err != nil {
			return err
		}
		runner, err := arbor.LoadTestScript(src)
		if err != nil {
			return fmt.Errorf("%s: %w", scriptPath, err)
		}
		m.SetTestRunner(runner)
	}

	if watch, _ := cmd.Flags().GetBool("watch"); watch {
		loader, err := arbor.NewDataLoader(args[0], log)
		if err != nil {
			return err
		}
		loader.OnChange(m.QueueData)
		stop, err := loader.Watch()
		if err != nil {
			return err
		}
		defer stop()
	}

	showFPS, _ := cmd.Flags().GetBool("fps")
	return arbor.Run(m, arbor.RunConfig{
		Title:   "arbor - " + filepath.Base(args[0]),
		ShowFPS: showFPS,
	})
}
