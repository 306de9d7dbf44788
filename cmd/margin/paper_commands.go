package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"margin/internal/api"
)

func newPaperCommand(ctx *commandContext) *cobra.Command {
	paperCmd := &cobra.Command{
		Use:   "paper",
		Short: "Manage tracked papers",
	}

	paperCmd.AddCommand(newPaperAddCommand(ctx))
	paperCmd.AddCommand(newPaperListCommand(ctx))
	paperCmd.AddCommand(newPaperShowCommand(ctx))
	paperCmd.AddCommand(newPaperUpdateCommand(ctx))
	paperCmd.AddCommand(newPaperRefreshCommand(ctx))
	paperCmd.AddCommand(newPaperRemoveCommand(ctx))

	return paperCmd
}

func newPaperAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <url>",
		Short: "Register a paper; metadata is resolved automatically",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.authedClient()
			if err != nil {
				return err
			}
			paper, err := client.AddPaper(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Added paper %s\n", paper.ID)
			if paper.Title != nil {
				fmt.Fprintf(out, "  Title: %s\n", *paper.Title)
			}
			if paper.Authors != nil {
				fmt.Fprintf(out, "  Authors: %s\n", *paper.Authors)
			}
			if paper.Title == nil && paper.Authors == nil {
				fmt.Fprintln(out, "  No metadata could be resolved; set it with `margin paper update`")
			}
			return nil
		},
	}
}

func newPaperListCommand(ctx *commandContext) *cobra.Command {
	var statusFilters []string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tracked papers",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.authedClient()
			if err != nil {
				return err
			}
			papers, err := client.ListPapers(cmd.Context(), statusFilters...)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, api.PaperListResponse{Papers: papers})
			}
			out := cmd.OutOrStdout()
			if len(papers) == 0 {
				fmt.Fprintln(out, "No papers tracked")
				return nil
			}
			rows := make([][]string, 0, len(papers))
			for _, p := range papers {
				title := orDash(p.Title)
				rows = append(rows, []string{
					shortID(p.ID),
					truncate(title, 48),
					humanizeLabel(p.Status),
					formatProgress(p.CurrentPage, p.PageCount),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Title", "Status", "Page"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&statusFilters, "status", nil, "Filter by status (to_read, reading, read)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newPaperShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one paper in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.authedClient()
			if err != nil {
				return err
			}
			id, err := resolvePaperID(cmd.Context(), client, args[0])
			if err != nil {
				return err
			}
			paper, err := client.GetPaper(cmd.Context(), id)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, api.PaperResponse{Paper: *paper})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:       %s\n", paper.ID)
			fmt.Fprintf(out, "URL:      %s\n", paper.URL)
			fmt.Fprintf(out, "Title:    %s\n", orDash(paper.Title))
			fmt.Fprintf(out, "Authors:  %s\n", orDash(paper.Authors))
			fmt.Fprintf(out, "Status:   %s\n", humanizeLabel(paper.Status))
			fmt.Fprintf(out, "Page:     %s\n", formatProgress(paper.CurrentPage, paper.PageCount))
			if paper.CreatedAt != "" {
				fmt.Fprintf(out, "Added:    %s\n", paper.CreatedAt)
			}
			if paper.Abstract != nil {
				fmt.Fprintf(out, "\n%s\n", *paper.Abstract)
			}
			if paper.Outcome != nil && strings.TrimSpace(*paper.Outcome) != "" {
				fmt.Fprintf(out, "\nNotes:\n%s\n", *paper.Outcome)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of text")
	return cmd
}

func newPaperUpdateCommand(ctx *commandContext) *cobra.Command {
	var (
		title     string
		authors   string
		abstract  string
		status    string
		outcome   string
		page      int
		pageCount int
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update paper fields; only provided flags change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.authedClient()
			if err != nil {
				return err
			}
			id, err := resolvePaperID(cmd.Context(), client, args[0])
			if err != nil {
				return err
			}

			var req api.UpdatePaperRequest
			flags := cmd.Flags()
			if flags.Changed("title") {
				req.Title = &title
			}
			if flags.Changed("authors") {
				req.Authors = &authors
			}
			if flags.Changed("abstract") {
				req.Abstract = &abstract
			}
			if flags.Changed("status") {
				req.Status = &status
			}
			if flags.Changed("notes") {
				req.Outcome = &outcome
			}
			if flags.Changed("page") {
				req.CurrentPage = &page
			}
			if flags.Changed("pages") {
				req.PageCount = &pageCount
			}
			if req == (api.UpdatePaperRequest{}) {
				return fmt.Errorf("nothing to update; pass at least one field flag")
			}

			paper, err := client.UpdatePaper(cmd.Context(), id, req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated paper %s\n", paper.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Paper title")
	cmd.Flags().StringVar(&authors, "authors", "", "Comma-separated author list")
	cmd.Flags().StringVar(&abstract, "abstract", "", "Abstract text")
	cmd.Flags().StringVar(&status, "status", "", "Reading status (to_read, reading, read)")
	cmd.Flags().StringVar(&outcome, "notes", "", "Outcome notes")
	cmd.Flags().IntVar(&page, "page", 0, "Current page")
	cmd.Flags().IntVar(&pageCount, "pages", 0, "Total page count")
	return cmd
}

func newPaperRefreshCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh <id>",
		Short: "Re-run metadata resolution and fill in missing fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.authedClient()
			if err != nil {
				return err
			}
			id, err := resolvePaperID(cmd.Context(), client, args[0])
			if err != nil {
				return err
			}
			paper, err := client.RefreshMetadata(cmd.Context(), id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Refreshed paper %s\n", paper.ID)
			fmt.Fprintf(out, "  Title:   %s\n", orDash(paper.Title))
			fmt.Fprintf(out, "  Authors: %s\n", orDash(paper.Authors))
			return nil
		},
	}
}

func newPaperRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove a paper",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.authedClient()
			if err != nil {
				return err
			}
			id, err := resolvePaperID(cmd.Context(), client, args[0])
			if err != nil {
				return err
			}
			if err := client.DeletePaper(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed paper %s\n", id)
			return nil
		},
	}
}

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "resolve <url>",
		Short: "Resolve metadata for a URL without tracking it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.authedClient()
			if err != nil {
				return err
			}
			meta, err := client.ResolveMetadata(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, api.MetadataResponse{Metadata: *meta})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Title:    %s\n", orDash(meta.Title))
			fmt.Fprintf(out, "Authors:  %s\n", orDash(meta.Authors))
			if meta.Abstract != nil {
				fmt.Fprintf(out, "\n%s\n", *meta.Abstract)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of text")
	return cmd
}

func formatProgress(current, total *int) string {
	if current == nil {
		return "-"
	}
	if total == nil {
		return fmt.Sprintf("%d", *current)
	}
	return fmt.Sprintf("%d/%d", *current, *total)
}

func resolvePaperID(ctx context.Context, client paperLister, arg string) (string, error) {
	return resolveID(arg, "paper", func() ([]string, error) {
		papers, err := client.ListPapers(ctx)
		if err != nil {
			return nil, err
		}
		ids := make([]string, len(papers))
		for i, p := range papers {
			ids[i] = p.ID
		}
		return ids, nil
	})
}

type paperLister interface {
	ListPapers(ctx context.Context, statuses ...string) ([]api.Paper, error)
}
