package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/litgraph/internal/client"
	"github.com/alfredjeanlab/litgraph/internal/model"
	"github.com/alfredjeanlab/litgraph/internal/summarize"
)

var summaryCmd = &cobra.Command{
	Use:     "summary",
	Short:   "Summarize an article by title or catalogue ID",
	GroupID: "explore",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		title, _ := cmd.Flags().GetString("title")
		req := model.SummaryRequest{Title: title}
		if cmd.Flags().Changed("id") {
			id, _ := cmd.Flags().GetInt("id")
			req.PubID = &id
		}
		if req.Title == "" && req.PubID == nil {
			return fmt.Errorf("one of --title or --id is required")
		}

		text, err := litClient.Summarize(cmd.Context(), req)
		switch {
		case errors.Is(err, client.ErrNoSummary):
			text = summarize.MsgUnable
		case err != nil:
			return fmt.Errorf("summarizing: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), map[string]string{"summary": text})
		}
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	},
}

func init() {
	summaryCmd.Flags().String("title", "", "article title")
	summaryCmd.Flags().Int("id", 0, "catalogue article ID")
}
