package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/litgraph/internal/model"
	litsync "github.com/alfredjeanlab/litgraph/internal/sync"
	"github.com/alfredjeanlab/litgraph/internal/ui"
)

var searchCmd = &cobra.Command{
	Use:     "search [query]",
	Short:   "Search article titles, optionally filtered by facets",
	GroupID: "catalog",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := model.SearchRequest{}
		if len(args) == 1 {
			req.Query = args[0]
		}
		req.Page, _ = cmd.Flags().GetInt("page")
		req.Sort, _ = cmd.Flags().GetString("sort")
		filters, _ := cmd.Flags().GetStringArray("filter")
		parsed, err := parseFilters(filters)
		if err != nil {
			return err
		}

		var page *model.ArticlePage
		if len(parsed) > 0 {
			req.Filters = parsed
			page, err = litClient.AdvancedSearch(cmd.Context(), req)
		} else {
			page, err = litClient.Search(cmd.Context(), req)
		}
		if err != nil {
			return fmt.Errorf("searching: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), page)
		}
		return printArticlePage(cmd.OutOrStdout(), page)
	},
}

// parseFilters turns "Group=value" flags into facet filters. Group names
// match case-insensitively; "year" and "publisher" are accepted as short
// forms.
func parseFilters(flags []string) (map[string][]string, error) {
	groups := map[string]string{
		"keywords":         model.FacetKeywords,
		"keyword":          model.FacetKeywords,
		"authors":          model.FacetAuthors,
		"author":           model.FacetAuthors,
		"publication year": model.FacetYear,
		"year":             model.FacetYear,
		"publisher":        model.FacetPublisher,
	}
	out := make(map[string][]string)
	for _, f := range flags {
		name, value, ok := strings.Cut(f, "=")
		if !ok || strings.TrimSpace(value) == "" {
			return nil, fmt.Errorf("invalid filter %q (want Group=value)", f)
		}
		group, ok := groups[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("unknown filter group %q", name)
		}
		out[group] = append(out[group], strings.TrimSpace(value))
	}
	return out, nil
}

var showCmd = &cobra.Command{
	Use:     "show <id>",
	Short:   "Show one article",
	GroupID: "catalog",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		a, err := litClient.GetArticle(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("getting article %d: %w", id, err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), a)
		}
		printArticle(cmd.OutOrStdout(), a)
		return nil
	},
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("invalid article id %q", s)
	}
	return id, nil
}

var chartsCmd = &cobra.Command{
	Use:     "charts",
	Short:   "Show publication, keyword, author and publisher counts",
	GroupID: "catalog",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ch, err := litClient.Charts(cmd.Context())
		if err != nil {
			return fmt.Errorf("fetching charts: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), ch)
		}
		w := cmd.OutOrStdout()
		top, _ := cmd.Flags().GetInt("top")
		top = max(top, 0)

		fmt.Fprintln(w, ui.RenderAccent("Publications per year"))
		for _, y := range ch.Years {
			fmt.Fprintf(w, "  %d  %s %d\n", y.Year, strings.Repeat("█", min(y.Count, 50)), y.Count)
		}
		fmt.Fprintln(w, ui.RenderAccent("\nTop keywords"))
		for _, c := range ch.Categories[:min(top, len(ch.Categories))] {
			fmt.Fprintf(w, "  %-40s %d\n", c.Category, c.Count)
		}
		fmt.Fprintln(w, ui.RenderAccent("\nTop authors"))
		for _, a := range ch.Authors[:min(top, len(ch.Authors))] {
			fmt.Fprintf(w, "  %-40s %d\n", a.Author, a.Count)
		}
		fmt.Fprintln(w, ui.RenderAccent("\nTop publishers"))
		for _, p := range ch.Publishers[:min(top, len(ch.Publishers))] {
			fmt.Fprintf(w, "  %-40s %d\n", truncate(p.Publisher, 40), p.Count)
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:     "stats",
	Short:   "Show catalogue completeness",
	GroupID: "catalog",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := litClient.Stats(cmd.Context())
		if err != nil {
			return fmt.Errorf("fetching stats: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), st)
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Articles:       %d\n", st.TotalArticles)
		fmt.Fprintf(w, "  abstract:     %d\n", st.AbstractCount)
		fmt.Fprintf(w, "  sections:     %d\n", st.SectionsOnlyCount)
		fmt.Fprintf(w, "  no content:   %d\n", st.NoContentCount)
		fmt.Fprintf(w, "Summarizable:   %d\n", st.SummarizableCount)
		fmt.Fprintf(w, "Quality:        %d high, %d medium, %d low\n",
			st.HighQualityCount, st.MediumQualityCount, st.LowQualityCount)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:     "import <file>",
	Short:   "Import articles from a JSON or JSONL export file",
	GroupID: "catalog",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		articles, err := readArticles(args[0])
		if err != nil {
			return err
		}
		if len(articles) == 0 {
			return fmt.Errorf("%s: no articles", args[0])
		}
		results, err := httpClient().ImportArticles(cmd.Context(), articles)
		if err != nil {
			return fmt.Errorf("importing: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), results)
		}
		created := 0
		for _, r := range results {
			if r.Created {
				created++
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d articles (%d new, %d updated)\n",
			len(results), created, len(results)-created)
		return nil
	},
}

// readArticles reads a JSON array, a single JSON article, or a JSONL
// catalogue export.
func readArticles(path string) ([]*model.Article, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if ext := strings.ToLower(filepath.Ext(path)); ext == ".jsonl" || ext == ".ndjson" {
		articles, err := litsync.ReadJSONL(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return articles, nil
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	articles, err := model.DecodeArticles(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return articles, nil
}

var deleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Short:   "Delete an article",
	GroupID: "catalog",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := httpClient().DeleteArticle(cmd.Context(), id); err != nil {
			return fmt.Errorf("deleting article %d: %w", id, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "article %d deleted\n", id)
		return nil
	},
}

var reloadCmd = &cobra.Command{
	Use:     "reload",
	Short:   "Rebuild the server's catalogue from the database",
	GroupID: "catalog",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := httpClient().Reload(cmd.Context())
		if err != nil {
			return fmt.Errorf("reloading: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "catalogue reloaded (%d articles)\n", n)
		return nil
	},
}

func init() {
	searchCmd.Flags().Int("page", 1, "result page")
	searchCmd.Flags().String("sort", model.SortBest, "sort order (best, newest, oldest)")
	searchCmd.Flags().StringArray("filter", nil, `facet filter "Group=value" (keywords, authors, year, publisher); repeatable`)

	chartsCmd.Flags().Int("top", 10, "rows per ranking")
}
