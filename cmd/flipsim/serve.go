package main

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Args:  cobra.NoArgs,
	Short: "Run a standalone Prometheus metrics exporter",
	Long: `Serves the flipsim_* counters and histograms registered by pkg/metrics on
--metrics-addr, for a long-lived process whose scenario/fuzz runs share this
binary's metrics registry (e.g. driven by a separate automation loop that
calls into this process's packages).`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("metrics-addr", ":9090", "address to serve /metrics on")
}

func runServe(cmd *cobra.Command, _ []string) error {
	addr, _ := cmd.Flags().GetString("metrics-addr")

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	fmt.Printf("serving metrics on %s/metrics\n", addr)
	return http.ListenAndServe(addr, mux)
}
