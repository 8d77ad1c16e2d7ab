package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/kaizencycle/mobius-browser-shell/internal/ledger"
	"github.com/kaizencycle/mobius-browser-shell/internal/models"
	"github.com/kaizencycle/mobius-browser-shell/internal/validation"
)

const sourceAdminCorrection = "admin_correction"

func newBalanceCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "balance <user-id>",
		Short: "Show a user's derived balance and lifetime earnings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withEnv(cmd, func(ctx context.Context, e *env) error {
				s, err := e.ledger.Summary(ctx, args[0])
				if err != nil {
					return err
				}
				return c.printer(cmd).summary(s)
			})
		},
	}
}

func newEventsCmd(c *cli) *cobra.Command {
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "events <user-id>",
		Short: "List a user's ledger entries, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit = ledger.ClampLimit(limit, ledger.DefaultEventsLimit, ledger.MaxHistoryLimit)
			return c.withEnv(cmd, func(ctx context.Context, e *env) error {
				entries, err := e.ledger.ListEvents(ctx, args[0], limit, offset)
				if err != nil {
					return err
				}
				return c.printer(cmd).entries(entries)
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", ledger.DefaultEventsLimit, "maximum entries to show")
	cmd.Flags().IntVar(&offset, "offset", 0, "entries to skip")
	return cmd
}

func newCorrectCmd(c *cli) *cobra.Command {
	var note, source, operator string
	cmd := &cobra.Command{
		Use:   "correct <user-id> <amount>",
		Short: "Append a CORRECTION entry (negative amounts deduct)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := decimal.NewFromString(args[1])
			if err != nil {
				return fmt.Errorf("amount %q is not a decimal number", args[1])
			}
			if amount.IsZero() {
				return fmt.Errorf("amount must be non-zero")
			}
			meta := map[string]any{"note": strings.TrimSpace(note), "corrected_by": operator}
			v, err := validation.New()
			if err != nil {
				return err
			}
			if err := v.ValidateMeta(source, meta); err != nil {
				return err
			}
			return c.withEnv(cmd, func(ctx context.Context, e *env) error {
				receipt, err := e.ledger.WriteEntry(ctx, models.NewEntry{
					UserID:         args[0],
					Amount:         amount,
					Reason:         models.ReasonCorrection,
					Source:         source,
					Meta:           meta,
					IntegrityScore: 1.0,
				})
				if err != nil {
					return err
				}
				return c.printer(cmd).receipt(receipt)
			})
		},
	}
	cmd.Flags().StringVar(&note, "note", "", "reason for the correction (required)")
	cmd.Flags().StringVar(&source, "source", sourceAdminCorrection, "ledger source tag")
	cmd.Flags().StringVar(&operator, "operator", "micctl", "recorded as corrected_by")
	_ = cmd.MarkFlagRequired("note")
	return cmd
}

func newStatsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show ledger-wide totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withEnv(cmd, func(ctx context.Context, e *env) error {
				s, err := e.ledger.Stats(ctx)
				if err != nil {
					return err
				}
				return c.printer(cmd).stats(s)
			})
		},
	}
}
