package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"docverify/internal/api"
	"docverify/internal/history"
	"docverify/internal/present"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var filterFlag string
	var formatFlag string
	var limit int
	var clear bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List locally recorded submissions",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := history.ParseFilter(filterFlag)
			if err != nil {
				return err
			}
			format, err := present.ParseFormat(formatFlag)
			if err != nil {
				return err
			}
			return ctx.withHistory(func(store *history.Store) error {
				out := cmd.OutOrStdout()
				if clear {
					removed, err := store.Clear(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Removed %d history entries\n", removed)
					return nil
				}

				entries, err := store.List(cmd.Context(), filter, limit)
				if err != nil {
					return err
				}
				if format != present.FormatText {
					return writeStructured(cmd, format, entries)
				}
				if len(entries) == 0 {
					fmt.Fprintln(out, "No submissions recorded")
					return nil
				}
				fmt.Fprintln(out, present.RenderTable(
					[]string{"Job", "File", "Status", "Verdict", "Confidence", "Submitted"},
					historyRows(entries),
					nil,
				))
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "\n%d processing, %d completed, %d failed\n",
					stats[api.StatusProcessing], stats[api.StatusCompleted], stats[api.StatusFailed])
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&filterFlag, "filter", "all", "Filter by status: all, processing, completed or failed")
	cmd.Flags().StringVarP(&formatFlag, "format", "f", "text", "Output format: text, json or yaml")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries to show (0 for all)")
	cmd.Flags().BoolVar(&clear, "clear", false, "Delete every recorded entry")
	return cmd
}

func historyRows(entries []*history.Entry) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		verdict := present.Placeholder
		if e.Verdict != "" {
			verdict = string(e.Verdict)
		} else if e.ResultState == "not_found" {
			verdict = "no result"
		}
		confidence := present.Placeholder
		if e.Confidence != nil {
			confidence = present.Percent1(*e.Confidence)
		}
		file := strings.TrimSpace(e.FileName)
		if file == "" {
			file = present.Placeholder
		}
		status := string(e.Status)
		if e.Status == api.StatusProcessing && e.Progress > 0 {
			status = fmt.Sprintf("%s %d%%", status, e.Progress)
		}
		rows = append(rows, []string{
			e.JobID,
			file,
			status,
			verdict,
			confidence,
			humanize.Time(e.SubmittedAt),
		})
	}
	return rows
}
