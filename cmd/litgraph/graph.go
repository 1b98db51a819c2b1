package main

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/litgraph/internal/explorer"
	"github.com/alfredjeanlab/litgraph/internal/model"
	"github.com/alfredjeanlab/litgraph/internal/ui"
)

var (
	graphExpand []int
	graphReveal int
)

var graphCmd = &cobra.Command{
	Use:   "graph <author|keyword|title|article> <value>",
	Short: "Print the graph for a query as a tree",
	Long: `Print the graph for a query as a tree.

Keyword values are comma-separated. --expand activates the given article ids
after the root load, and --reveal discloses that many further batches behind
every "more" node.`,
	GroupID: "explore",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, layout, err := buildGraph(cmd.Context(), litClient, graphRequest{
			Mode:      args[0],
			Value:     args[1],
			Expand:    graphExpand,
			Reveal:    graphReveal,
			BatchSize: batchSize,
		})
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), snap)
		}
		return ui.WriteTree(cmd.OutOrStdout(), snap, layout)
	},
}

func init() {
	graphCmd.Flags().IntSliceVar(&graphExpand, "expand", nil, "article ids to expand after loading")
	graphCmd.Flags().IntVar(&graphReveal, "reveal", 0, "extra batches to reveal behind each more node")
}

type graphRequest struct {
	Mode      string
	Value     string
	Expand    []int
	Reveal    int
	BatchSize int
}

// capture is a headless renderer. It keeps the newest snapshot and turns
// error notifications into the command's error.
type capture struct {
	mu   sync.Mutex
	snap explorer.Snapshot
	err  error
}

func (c *capture) Bind(*explorer.Router, explorer.Layout) {}
func (c *capture) Fit(string)                             {}

func (c *capture) Render(s explorer.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s.Revision >= c.snap.Revision {
		c.snap = s
	}
}

func (c *capture) Notify(level explorer.Level, msg string) {
	if level != explorer.LevelError {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err == nil {
		c.err = fmt.Errorf("%s", msg)
	}
}

func (c *capture) result() (explorer.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap, c.err
}

// buildGraph runs one root load plus the requested expansions and reveals
// against an explorer engine, and returns the final snapshot.
func buildGraph(ctx context.Context, f explorer.Fetcher, req graphRequest) (explorer.Snapshot, explorer.Layout, error) {
	if req.Reveal < 0 {
		return explorer.Snapshot{}, explorer.Layout{}, fmt.Errorf("--reveal must not be negative")
	}
	out := &capture{}
	e, err := explorer.New(explorer.Options{
		Fetcher:   f,
		Renderer:  out,
		Notifier:  out,
		BatchSize: req.BatchSize,
	})
	if err != nil {
		return explorer.Snapshot{}, explorer.Layout{}, err
	}
	defer e.Close()

	if err := loadGraphRoot(ctx, e, req.Mode, req.Value); err != nil {
		return explorer.Snapshot{}, e.Layout(), err
	}
	if _, err := out.result(); err != nil {
		return explorer.Snapshot{}, e.Layout(), err
	}

	for _, id := range req.Expand {
		if _, err := e.ActivateArticle(ctx, explorer.ArticleID(id)); err != nil {
			return explorer.Snapshot{}, e.Layout(), err
		}
	}

	for range req.Reveal {
		if !revealAll(e) {
			break
		}
	}

	snap, err := out.result()
	if err != nil {
		return explorer.Snapshot{}, e.Layout(), err
	}
	return snap, e.Layout(), nil
}

func loadGraphRoot(ctx context.Context, e *explorer.Engine, mode, value string) error {
	var err error
	switch mode {
	case model.ModeAuthor:
		_, err = e.LoadAuthor(ctx, value)
	case model.ModeKeyword, "keywords":
		kws := model.SplitList(value)
		if len(kws) == 0 {
			return fmt.Errorf("no keywords given")
		}
		_, err = e.LoadKeywords(ctx, kws)
	case model.ModeTitle:
		_, err = e.LoadTitle(ctx, value)
	case model.ModeArticle:
		id, convErr := strconv.Atoi(value)
		if convErr != nil || id <= 0 {
			return fmt.Errorf("invalid article id %q", value)
		}
		_, err = e.LoadArticle(ctx, id)
	default:
		return fmt.Errorf("unknown graph mode %q (must be author, keyword, title or article)", mode)
	}
	return err
}

// revealAll discloses one batch behind every sentinel in the graph. It
// reports whether anything was revealed.
func revealAll(e *explorer.Engine) bool {
	revealed := false
	for _, n := range e.Snapshot().Nodes {
		var o explorer.Outcome
		switch n.Kind {
		case explorer.KindMoreRoot:
			o = e.RevealRoot(n.ID)
		case explorer.KindMoreArticle:
			o = e.RevealArticle(n.ID)
		default:
			continue
		}
		if o == explorer.OutcomeRevealed {
			revealed = true
		}
	}
	return revealed
}
