package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/litgraph/internal/client"
	"github.com/alfredjeanlab/litgraph/internal/explorer"
	"github.com/alfredjeanlab/litgraph/internal/ui"
)

var (
	serverAddr string
	httpURL    string
	transport  string
	token      string
	jsonOutput bool
	batchSize  int
	noColor    bool

	litClient client.LitClient
)

func defaultHTTPURL() string {
	if s := os.Getenv("LITGRAPH_HTTP_URL"); s != "" {
		return s
	}
	if u := activeRemoteURL(); u != "" {
		return u
	}
	return "http://localhost:8080"
}

func defaultServer() string {
	if s := os.Getenv("LITGRAPH_SERVER"); s != "" {
		return s
	}
	if s := activeRemoteGRPC(); s != "" {
		return s
	}
	return "localhost:9090"
}

func defaultToken() string {
	if s := os.Getenv("LITGRAPH_TOKEN"); s != "" {
		return s
	}
	return activeRemoteToken()
}

func defaultNATSURL() string {
	if s := os.Getenv("LITGRAPH_NATS_URL"); s != "" {
		return s
	}
	return activeRemoteNATSURL()
}

// skipClient is used as PersistentPreRunE by commands that never talk to a
// server through litClient.
func skipClient(*cobra.Command, []string) error { return nil }

var rootCmd = &cobra.Command{
	Use:           "litgraph <command>",
	Short:         "Browse a space-biology literature catalogue as a knowledge graph",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if noColor || !ui.ShouldUseColor() {
			ui.ForceNoColor()
		}
		if batchSize <= 0 {
			return fmt.Errorf("--batch-size must be positive")
		}
		c, err := newClient()
		if err != nil {
			return err
		}
		litClient = c
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if litClient != nil {
			litClient.Close()
		}
	},
}

func newClient() (client.LitClient, error) {
	switch transport {
	case "http":
		return client.NewHTTPClient(httpURL, token), nil
	case "grpc":
		c, err := client.NewGRPCClient(serverAddr, token)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to server: %w", err)
		}
		return c, nil
	}
	return nil, fmt.Errorf("unknown transport %q (must be http or grpc)", transport)
}

// httpClient returns an HTTP client for the write endpoints, which have no
// gRPC counterpart.
func httpClient() *client.HTTPClient {
	return client.NewHTTPClient(httpURL, token)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&httpURL, "http-url", defaultHTTPURL(), "HTTP server URL")
	rootCmd.PersistentFlags().StringVar(&serverAddr, "server", defaultServer(), "gRPC server address")
	rootCmd.PersistentFlags().StringVar(&transport, "transport", "http", "transport protocol (http or grpc)")
	rootCmd.PersistentFlags().StringVar(&token, "token", defaultToken(), "bearer token")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().IntVar(&batchSize, "batch-size", explorer.DefaultBatchSize, "nodes revealed per batch")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddGroup(
		&cobra.Group{ID: "explore", Title: "Exploring:"},
		&cobra.Group{ID: "catalog", Title: "Catalogue:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	cobra.EnableCommandSorting = false
	rootCmd.SetHelpFunc(colorizedHelpFunc())

	// Exploring
	rootCmd.AddCommand(exploreCmd)
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(summaryCmd)

	// Catalogue
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(chartsCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(reloadCmd)

	// System
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(remoteCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.RenderError("Error: ")+err.Error())
		os.Exit(1)
	}
}
