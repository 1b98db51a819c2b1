package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/alfredjeanlab/litgraph/internal/explorer"
	"github.com/alfredjeanlab/litgraph/internal/model"
	"github.com/alfredjeanlab/litgraph/internal/ui"
)

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func printArticle(w io.Writer, a *model.Article) {
	fmt.Fprintf(w, "ID:          %d\n", a.ID)
	fmt.Fprintf(w, "Title:       %s\n", a.Title)
	if a.Pmcid != "" {
		fmt.Fprintf(w, "PMCID:       %s\n", a.Pmcid)
	}
	if len(a.Authors) > 0 {
		fmt.Fprintf(w, "Authors:     %s\n", strings.Join(a.Authors, ", "))
	}
	if len(a.Keywords) > 0 {
		fmt.Fprintf(w, "Keywords:    %s\n", strings.Join(a.Keywords, ", "))
	}
	if len(a.Publisher) > 0 {
		fmt.Fprintf(w, "Publisher:   %s\n", strings.Join(a.Publisher, ", "))
	}
	if a.PublicationDate != "" {
		fmt.Fprintf(w, "Published:   %s\n", a.PublicationDate)
	}
	if link := explorer.LinkFor(model.Payload{"Pmcid": a.Pmcid, "Link": a.Link}); link != "" {
		fmt.Fprintf(w, "Link:        %s\n", link)
	}
	if a.Abstract != "" {
		fmt.Fprintf(w, "\n%s\n", a.Abstract)
	}
	if len(a.Sections) > 0 {
		fmt.Fprintf(w, "\n%s\n", ui.RenderMuted(fmt.Sprintf("%d sections", len(a.Sections))))
	}
}

func printArticlePage(w io.Writer, page *model.ArticlePage) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tPMCID\tTITLE\tAUTHORS")
	for _, a := range page.Articles {
		authors := ""
		if len(a.Authors) > 0 {
			authors = a.Authors[0]
			if len(a.Authors) > 1 {
				authors += fmt.Sprintf(" +%d", len(a.Authors)-1)
			}
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", a.ID, a.PublicationDate, a.Pmcid, truncate(a.Title, 60), authors)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	pages := 1
	if page.PerPage > 0 {
		pages = max((page.Total+page.PerPage-1)/page.PerPage, 1)
	}
	fmt.Fprintf(w, "\n%d articles (page %d of %d)\n", page.Total, max(page.Page, 1), pages)
	return nil
}
