package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"docverify/internal/api"
	"docverify/internal/present"
	"docverify/internal/stages"
	"docverify/internal/workflow"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var watch bool
	var display resultOptions

	cmd := &cobra.Command{
		Use:   "submit <file>",
		Short: "Upload a document image for verification",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := display.validate(); err != nil {
				return err
			}
			return ctx.withManager(cmd, func(m *workflow.Manager) error {
				submitted, err := m.Submit(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !watch {
					return printSubmitted(cmd, submitted, display)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Job %s submitted; waiting for results\n", submitted.JobID())
				return watchJob(cmd, m, submitted.JobID(), display)
			})
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Follow the job until results are available")
	display.bind(cmd)
	return cmd
}

func printSubmitted(cmd *cobra.Command, submitted workflow.Submitted, display resultOptions) error {
	format, _ := present.ParseFormat(display.format)
	if format != present.FormatText {
		return writeStructured(cmd, format, submitted.Response)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Job ID: %s\n", submitted.JobID())
	fmt.Fprintf(out, "Status: %s\n", submitted.Response.Status)
	if msg := strings.TrimSpace(submitted.Response.Message); msg != "" {
		fmt.Fprintln(out, msg)
	}
	fmt.Fprintf(out, "Follow progress with `docverify watch %s`\n", submitted.JobID())
	return nil
}

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var interval time.Duration
	var display resultOptions

	cmd := &cobra.Command{
		Use:   "watch <job-id>",
		Short: "Follow a job until it finishes and show its results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := display.validate(); err != nil {
				return err
			}
			var extra []workflow.ManagerOption
			if interval > 0 {
				extra = append(extra, workflow.WithInterval(interval))
			}
			jobID := strings.TrimSpace(args[0])
			return ctx.withManager(cmd, func(m *workflow.Manager) error {
				return watchJob(cmd, m, jobID, display)
			}, extra...)
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "Polling interval (defaults to polling.interval_ms)")
	display.bind(cmd)
	return cmd
}

func watchJob(cmd *cobra.Command, m *workflow.Manager, jobID string, display resultOptions) error {
	progress := newProgressDisplay(cmd.ErrOrStderr(), present.ShouldColorize(cmd.ErrOrStderr()))
	out, err := m.Watch(cmd.Context(), jobID, progress.update)
	progress.finish()
	if err != nil {
		return err
	}

	format, _ := present.ParseFormat(display.format)
	if format == present.FormatText {
		w := cmd.OutOrStdout()
		colorize := present.ShouldColorize(w)
		for _, line := range present.RenderStepper(out.Final.Stages, out.Final.Status, colorize) {
			fmt.Fprintln(w, line)
		}
		if out.Final.JobStatus() == api.StatusFailed {
			fmt.Fprintln(w, present.StatusLine("Job", present.KindError, "processing failed on the service", colorize))
		}
		fmt.Fprintln(w)
	}
	if out.ResultErr != nil {
		return fmt.Errorf("%w; retry with `docverify result %s --retry`", out.ResultErr, jobID)
	}
	return writeOutcome(cmd, out.Result, display)
}

type statusView struct {
	Status api.StatusResponse  `json:"status" yaml:"status"`
	Stages []stages.StageState `json:"stages" yaml:"stages"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var formatFlag string

	cmd := &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show a job's current status once",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := present.ParseFormat(formatFlag)
			if err != nil {
				return err
			}
			svc, err := ctx.newClient()
			if err != nil {
				return err
			}
			status, err := svc.Status(cmd.Context(), strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			view := statusView{
				Status: status,
				Stages: stages.Map(status.CurrentStage, stages.FromConfig(ctx.configValue())),
			}
			if format != present.FormatText {
				return writeStructured(cmd, format, view)
			}

			out := cmd.OutOrStdout()
			colorize := present.ShouldColorize(out)
			fmt.Fprintf(out, "Job %s: %s\n", status.JobID, status.Status)
			for _, line := range present.RenderStepper(view.Stages, &view.Status, colorize) {
				fmt.Fprintln(out, line)
			}
			if !status.Terminal() {
				fmt.Fprintf(out, "\nFollow progress with `docverify watch %s`\n", status.JobID)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&formatFlag, "format", "f", "text", "Output format: text, json or yaml")
	return cmd
}
