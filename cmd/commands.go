package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"waitline/internal/auth"
	"waitline/internal/tasks"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the store schema and indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Store.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s store migrated\n", a.Config.StoreBackend)
			return nil
		},
	}
}

func newAuditCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Check that waiting positions are contiguous in every queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if n := tasks.AuditQueues(cmd.Context(), a.Engine, a.Log); n > 0 {
				return fmt.Errorf("%d queue(s) failed the position audit", n)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "all queues passed")
			return nil
		},
	}
}

func newAnalyticsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "analytics <business-id>",
		Short: "Print served, skipped and waiting counts for a business",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			summary, err := a.Engine.Analytics(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(summary)
			}

			queues := summary.Queues
			sort.SliceStable(queues, func(i, j int) bool { return queues[i].Title < queues[j].Title })
			rows := make([][]string, 0, len(queues)+1)
			for _, q := range queues {
				rows = append(rows, []string{
					q.Title, q.QueueID,
					strconv.Itoa(q.TotalUsers), strconv.Itoa(q.ServedUsers),
					strconv.Itoa(q.SkippedUsers), strconv.Itoa(q.WaitingUsers),
				})
			}
			rows = append(rows, []string{
				"TOTAL", fmt.Sprintf("%d queue(s)", summary.TotalQueues),
				strconv.Itoa(summary.TotalUsers), strconv.Itoa(summary.ServedUsers),
				strconv.Itoa(summary.SkippedUsers), strconv.Itoa(summary.WaitingUsers),
			})

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"Queue", "ID", "Total", "Served", "Skipped", "Waiting"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
				isTerminal(out),
			))
			fmt.Fprintf(out, "Average users per queue: %.2f\n", summary.AverageUsersPerQueue)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the summary as JSON")
	return cmd
}

func newTokenCommand(ctx *commandContext) *cobra.Command {
	var (
		role string
		ttl  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Sign an access token with the configured secret (development)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if role != auth.RoleAdmin && role != auth.RoleUser {
				return fmt.Errorf("unknown role %q", role)
			}
			token, err := auth.New(cfg.Auth.JWTSecret).IssueToken(args[0], role, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", auth.RoleUser, "Token role: user or admin")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	return cmd
}
