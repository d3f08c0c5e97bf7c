package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"docverify/internal/api"
	"docverify/internal/config"
	"docverify/internal/reports"
)

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	var all bool
	var dir string

	cmd := &cobra.Command{
		Use:   "download <job-id> [pdf|html|json|annotated|splicing ...]",
		Short: "Save report artifacts for a job",
		Long: "Save report artifacts for a job. Without a kind the PDF report is saved;\n" +
			"--all saves every artifact including the annotated forgery image and the splicing map.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobID := strings.TrimSpace(args[0])
			kinds, err := parseKinds(args[1:], all)
			if err != nil {
				return err
			}
			target := strings.TrimSpace(dir)
			if target != "" {
				if target, err = config.ExpandPath(target); err != nil {
					return fmt.Errorf("resolve download directory: %w", err)
				}
			}
			exporter, err := ctx.newExporter(cmd)
			if err != nil {
				return err
			}

			saved, err := exporter.DownloadAll(cmd.Context(), jobID, kinds, target)
			out := cmd.OutOrStdout()
			for _, s := range saved {
				detail := humanize.IBytes(uint64(s.Size))
				if s.Pages > 0 {
					detail = fmt.Sprintf("%s, %d pages", detail, s.Pages)
				}
				fmt.Fprintf(out, "%-10s %s (%s)\n", s.Kind, s.Path, detail)
			}
			if err != nil {
				var dlErr *reports.DownloadError
				if errors.As(err, &dlErr) && dlErr.NotFound() {
					switch dlErr.Kind {
					case api.ReportAnnotated:
						return fmt.Errorf("%w (no annotated image exists when no forgery was localized)", err)
					case api.ReportSplicing:
						return fmt.Errorf("%w (no splicing map exists when splicing analysis did not run)", err)
					}
				}
				return err
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Download every artifact")
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Destination directory (defaults to paths.download_dir)")
	return cmd
}

func parseKinds(args []string, all bool) ([]api.ReportKind, error) {
	if all {
		return api.AllReportKinds, nil
	}
	if len(args) == 0 {
		return []api.ReportKind{api.ReportPDF}, nil
	}
	seen := make(map[api.ReportKind]struct{}, len(args))
	kinds := make([]api.ReportKind, 0, len(args))
	for _, arg := range args {
		kind, err := api.ParseReportKind(arg)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[kind]; dup {
			continue
		}
		seen[kind] = struct{}{}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}
