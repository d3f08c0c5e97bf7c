package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"docverify/internal/fileutil"
	"docverify/internal/present"
	"docverify/internal/reports"
	"docverify/internal/results"
)

const resultRetryDelay = time.Second

// retryFromConfig marks a bare --retry: use polling.result_retries.
const retryFromConfig = -1

// bindRetryFlag registers --retry. Results are fetched once unless the flag is
// given; a bare --retry takes its count from the configuration.
func bindRetryFlag(cmd *cobra.Command, retries *int) {
	cmd.Flags().IntVar(retries, "retry", 0, "Re-fetch attempts after a failure (bare --retry uses polling.result_retries)")
	cmd.Flags().Lookup("retry").NoOptDefVal = strconv.Itoa(retryFromConfig)
}

func resolveRetries(ctx *commandContext, retries int) int {
	if retries == retryFromConfig {
		return ctx.configValue().Polling.ResultRetries
	}
	if retries < 0 {
		return 0
	}
	return retries
}

// resultOptions are the display flags shared by result, submit and watch.
type resultOptions struct {
	views  string
	format string
}

func (o *resultOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.views, "view", "all", "Views to show: summary, forgery, qr, ocr, validation or all (comma separated)")
	cmd.Flags().StringVarP(&o.format, "format", "f", "text", "Output format: text, json or yaml")
}

func (o resultOptions) validate() error {
	if _, err := present.ParseViews(o.views); err != nil {
		return err
	}
	_, err := present.ParseFormat(o.format)
	return err
}

// writeOutcome renders a fetch outcome. A missing result is shown as the
// not-found view rather than returned as an error.
func writeOutcome(cmd *cobra.Command, outcome results.Outcome, opts resultOptions) error {
	views, err := present.ParseViews(opts.views)
	if err != nil {
		return err
	}
	format, err := present.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	doc := present.Document{JobID: outcome.JobID, State: string(outcome.State)}
	if outcome.Response != nil {
		doc.Status = outcome.Response.Status
	}
	if outcome.State == results.StateLoaded {
		doc.Views = present.RenderAll(outcome.Response, views)
	} else {
		doc.Views = []present.Rendered{present.NotFound()}
	}
	out := cmd.OutOrStdout()
	return present.Write(out, format, doc, format == present.FormatText && present.ShouldColorize(out))
}

func writeStructured(cmd *cobra.Command, format present.Format, v any) error {
	if format == present.FormatYAML {
		data, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	return writeJSON(cmd, v)
}

func fetchOutcome(cmd *cobra.Command, ctx *commandContext, jobID string, retries int) (results.Outcome, error) {
	svc, err := ctx.newClient()
	if err != nil {
		return results.Outcome{}, err
	}
	assembler, err := results.NewAssembler(svc, ctx.ensureLogger())
	if err != nil {
		return results.Outcome{}, err
	}
	outcome, err := assembler.FetchWithRetry(cmd.Context(), jobID, retries, resultRetryDelay)
	if err != nil {
		var fetchErr *results.FetchError
		if errors.As(err, &fetchErr) && fetchErr.Retryable() {
			return outcome, fmt.Errorf("%w; retry with `docverify result %s --retry`", err, jobID)
		}
		return outcome, err
	}
	return outcome, nil
}

func newResultCommand(ctx *commandContext) *cobra.Command {
	var display resultOptions
	var retries int

	cmd := &cobra.Command{
		Use:   "result <job-id>",
		Short: "Fetch and show a job's verification result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := display.validate(); err != nil {
				return err
			}
			outcome, err := fetchOutcome(cmd, ctx, strings.TrimSpace(args[0]), resolveRetries(ctx, retries))
			if err != nil {
				return err
			}
			return writeOutcome(cmd, outcome, display)
		},
	}

	display.bind(cmd)
	bindRetryFlag(cmd, &retries)
	return cmd
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	var outPath string
	var retries int

	cmd := &cobra.Command{
		Use:   "export-xlsx <job-id>",
		Short: "Export a job's result views to an Excel workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobID := strings.TrimSpace(args[0])
			cfg := ctx.configValue()
			outcome, err := fetchOutcome(cmd, ctx, jobID, resolveRetries(ctx, retries))
			if err != nil {
				return err
			}
			if outcome.State != results.StateLoaded {
				return fmt.Errorf("job %s has no results to export. %s", jobID, results.NotFoundHint)
			}
			target := strings.TrimSpace(outPath)
			if target == "" {
				target = filepath.Join(cfg.Paths.DownloadDir, fileutil.SafeName(jobID)+"_results.xlsx")
			}
			if err := reports.ExportXLSX(outcome.Response, target); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Workbook written to %s\n", target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Workbook path (defaults to the download directory)")
	bindRetryFlag(cmd, &retries)
	return cmd
}
