// Gray Logic Electrolux - appliance bridge
//
// This is the main entry point for the Electrolux appliance bridge. The
// bridge maps the appliance cloud's capability trees to typed entities,
// keeps their state current from the live stream, and exposes them over
// MQTT (with Home Assistant discovery) and a REST/WebSocket API.
//
// Usage:
//
//	graylogic-electrolux serve                     # run the bridge
//	graylogic-electrolux resolve caps.json         # dump entities offline
//	graylogic-electrolux token --role admin me     # mint an access token
//	graylogic-electrolux hash-key --name ha        # generate an API key
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree.
func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "graylogic-electrolux",
		Short: "Electrolux appliance bridge",
		Long: `graylogic-electrolux maps Electrolux appliance capabilities to typed
entities, keeps their state in sync with the appliance cloud, and publishes
them over MQTT and a REST/WebSocket API.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate(fmt.Sprintf("graylogic-electrolux %s (commit %s, built %s)\n", version, commit, date))
	root.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (env: GRAYLOGIC_CONFIG, default: "+defaultConfigPath+")")

	resolvePath := func() string { return getConfigPath(configPath) }

	root.AddCommand(
		newServeCmd(resolvePath),
		newResolveCmd(),
		newTokenCmd(resolvePath),
		newHashKeyCmd(),
		newVersionCmd(),
	)
	return root
}

// getConfigPath returns the configuration file path: the flag if given,
// then GRAYLOGIC_CONFIG, then the default.
func getConfigPath(flag string) string {
	if flag != "" {
		return flag
	}
	if path := os.Getenv("GRAYLOGIC_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "graylogic-electrolux %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}
