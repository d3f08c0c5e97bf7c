package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"docverify/internal/api"
	"docverify/internal/logging"
	"docverify/internal/notifications"
	"docverify/internal/preflight"
	"docverify/internal/present"
)

func newHealthCommand(ctx *commandContext) *cobra.Command {
	var formatFlag string

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check the verification service and local directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := present.ParseFormat(formatFlag)
			if err != nil {
				return err
			}
			svc, err := ctx.newClient()
			if err != nil {
				return err
			}
			checks := preflight.RunAll(cmd.Context(), ctx.configValue(), svc)
			if format != present.FormatText {
				if err := writeStructured(cmd, format, checks); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				colorize := present.ShouldColorize(out)
				fmt.Fprintf(out, "Service: %s\n", svc.BaseURL())
				for _, check := range checks {
					kind := present.KindOK
					if !check.Passed {
						kind = present.KindError
					}
					fmt.Fprintln(out, present.StatusLine(check.Name, kind, check.Detail, colorize))
				}
			}
			if !preflight.AllPassed(checks) {
				return errors.New("one or more health checks failed")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&formatFlag, "format", "f", "text", "Output format: text, json or yaml")
	return cmd
}

func newReviewCommand(ctx *commandContext) *cobra.Command {
	reviewCmd := &cobra.Command{
		Use:   "review",
		Short: "Work the manual review queue",
	}
	reviewCmd.AddCommand(newReviewListCommand(ctx))
	reviewCmd.AddCommand(newReviewDecideCommand(ctx))
	return reviewCmd
}

func newReviewListCommand(ctx *commandContext) *cobra.Command {
	var formatFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs waiting for a manual decision",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := present.ParseFormat(formatFlag)
			if err != nil {
				return err
			}
			svc, err := ctx.newClient()
			if err != nil {
				return err
			}
			queue, err := svc.ManualReviewQueue(cmd.Context())
			if err != nil {
				return err
			}
			if format != present.FormatText {
				return writeStructured(cmd, format, queue)
			}
			out := cmd.OutOrStdout()
			if len(queue.PendingReviews) == 0 {
				fmt.Fprintln(out, "No jobs awaiting manual review")
				return nil
			}
			rows := make([][]string, 0, len(queue.PendingReviews))
			for _, item := range queue.PendingReviews {
				uploaded := item.UploadTimestamp
				if ts, err := api.ParseTimestamp(item.UploadTimestamp); err == nil {
					uploaded = ts.Format("2006-01-02 15:04")
				}
				rows = append(rows, []string{item.JobID, uploaded, item.Reason})
			}
			fmt.Fprintln(out, present.RenderTable([]string{"Job", "Uploaded", "Reason"}, rows, nil))
			fmt.Fprintf(out, "%d pending\n", queue.TotalCount)
			return nil
		},
	}

	cmd.Flags().StringVarP(&formatFlag, "format", "f", "text", "Output format: text, json or yaml")
	return cmd
}

func newReviewDecideCommand(ctx *commandContext) *cobra.Command {
	var notes string
	var reviewer string

	cmd := &cobra.Command{
		Use:   "decide <job-id> <APPROVED|REJECTED>",
		Short: "Record a manual review decision",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobID := strings.TrimSpace(args[0])
			decision, err := api.ParseReviewDecision(args[1])
			if err != nil {
				return err
			}
			svc, err := ctx.newClient()
			if err != nil {
				return err
			}
			if strings.TrimSpace(reviewer) == "" {
				reviewer = ctx.openSession().User()
			}
			ack, err := svc.SubmitReviewDecision(cmd.Context(), jobID, api.ManualReviewDecision{
				Decision:      decision,
				ReviewerNotes: strings.TrimSpace(notes),
				ReviewerID:    strings.TrimSpace(reviewer),
			})
			if err != nil {
				return err
			}
			if err := ctx.notifier(cmd).Publish(cmd.Context(), notifications.EventReviewSubmitted, notifications.Payload{
				"jobID":    jobID,
				"decision": string(ack.Decision),
			}); err != nil {
				ctx.ensureLogger().Debug("review notification failed", logging.Error(err))
			}
			if msg := strings.TrimSpace(ack.Message); msg != "" {
				fmt.Fprintln(cmd.OutOrStdout(), msg)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "Reviewer notes")
	cmd.Flags().StringVar(&reviewer, "reviewer", "", "Reviewer id (defaults to the local user)")
	return cmd
}

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test push notification",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			if strings.TrimSpace(cfg.Notifications.NtfyTopic) == "" {
				return errors.New("notifications.ntfy_topic is not set")
			}
			if err := notifications.NewService(cfg).Publish(cmd.Context(), notifications.EventTest, nil); err != nil {
				return fmt.Errorf("send test notification: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Test notification sent")
			return nil
		},
	}
}
