package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/litgraph/internal/events"
	"github.com/alfredjeanlab/litgraph/internal/explorer"
	"github.com/alfredjeanlab/litgraph/internal/idgen"
	"github.com/alfredjeanlab/litgraph/internal/tui"
	"github.com/alfredjeanlab/litgraph/internal/ui"
)

var (
	exploreAuthor   string
	exploreKeywords []string
	exploreTitle    string
	exploreArticle  int
)

var exploreCmd = &cobra.Command{
	Use:     "explore",
	Short:   "Browse the catalogue as an interactive graph",
	GroupID: "explore",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !ui.IsInteractive() {
			return fmt.Errorf("explore needs a terminal; use 'litgraph graph' for scripted output")
		}
		initial, err := initialLoad()
		if err != nil {
			return err
		}

		sessionID, err := idgen.SessionID()
		if err != nil {
			return err
		}

		// Explore owns the terminal, so diagnostics are discarded.
		logger := slog.New(slog.DiscardHandler)

		var publisher events.Publisher
		if u := defaultNATSURL(); u != "" {
			pub, err := events.NewNATSPublisher(u)
			if err != nil {
				fmt.Fprintln(os.Stderr, "warning: activity events disabled:", err)
			} else {
				publisher = pub
				defer pub.Close()
			}
		}

		bridge := tui.NewBridge(openURL)
		engine, err := explorer.New(explorer.Options{
			Fetcher:    litClient,
			Summarizer: litClient,
			Renderer:   bridge,
			Detail:     bridge,
			Notifier:   bridge,
			Links:      bridge,
			Inspect:    bridge.Inspect,
			Events:     publisher,
			SessionID:  sessionID,
			BatchSize:  batchSize,
			Logger:     logger,
		})
		if err != nil {
			return err
		}
		defer engine.Close()

		return tui.Run(cmd.Context(), engine, bridge, initial)
	},
}

func init() {
	exploreCmd.Flags().StringVar(&exploreAuthor, "author", "", "start from an author")
	exploreCmd.Flags().StringSliceVar(&exploreKeywords, "keywords", nil, "start from keywords (comma-separated)")
	exploreCmd.Flags().StringVar(&exploreTitle, "title", "", "start from a title search")
	exploreCmd.Flags().IntVar(&exploreArticle, "article", 0, "start from an article id")
	exploreCmd.MarkFlagsMutuallyExclusive("author", "keywords", "title", "article")
}

// initialLoad turns the start flags into the first root load, or nil when
// none was given.
func initialLoad() (func(context.Context, *explorer.Engine), error) {
	switch {
	case exploreAuthor != "":
		name := exploreAuthor
		return func(ctx context.Context, e *explorer.Engine) { e.LoadAuthor(ctx, name) }, nil
	case len(exploreKeywords) > 0:
		kws := exploreKeywords
		return func(ctx context.Context, e *explorer.Engine) { e.LoadKeywords(ctx, kws) }, nil
	case exploreTitle != "":
		title := exploreTitle
		return func(ctx context.Context, e *explorer.Engine) { e.LoadTitle(ctx, title) }, nil
	case exploreArticle != 0:
		if exploreArticle < 0 {
			return nil, fmt.Errorf("invalid article id %d", exploreArticle)
		}
		id := exploreArticle
		return func(ctx context.Context, e *explorer.Engine) { e.LoadArticle(ctx, id) }, nil
	}
	return nil, nil
}

// openURL hands a link to the desktop's default handler.
func openURL(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open %s: %w", url, err)
	}
	go cmd.Wait()
	return nil
}
