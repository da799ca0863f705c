package cmd

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"earnquest-bot/config"
	"earnquest-bot/database"
	"earnquest-bot/models"

	"github.com/spf13/cobra"
)

func newAuditCmd() *cobra.Command {
	var (
		days      int
		eventType string
	)
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Print the local event journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.Load()
			if err != nil {
				return err
			}
			return runAudit(cmd.Context(), cmd.OutOrStdout(), settings.Database.Path, days, eventType)
		},
	}
	cmd.Flags().IntVar(&days, "days", 7, "How many days back to show.")
	cmd.Flags().StringVar(&eventType, "type", "", "Only show one event type, e.g. user_banned.")
	return cmd
}

func runAudit(ctx context.Context, w io.Writer, dbPath string, days int, eventType string) error {
	if days <= 0 {
		return fmt.Errorf("--days must be positive")
	}
	db, err := database.InitDB(dbPath, nil)
	if err != nil {
		return err
	}
	defer db.Close()

	journal := database.NewJournal(db)
	r := database.GetLastDaysRange(days)
	counts, err := journal.CountByType(ctx, r)
	if err != nil {
		return err
	}
	entries, err := journal.Query(ctx, r, eventType)
	if err != nil {
		return err
	}
	printJournal(w, database.GetTimeRangeLabel(days), counts, entries)
	return nil
}

func printJournal(w io.Writer, label string, counts map[string]int, entries []models.JournalEntry) {
	fmt.Fprintf(w, "Event journal, %s\n\n", label)

	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		fmt.Fprintf(w, "  %-16s %d\n", t, counts[t])
	}
	if len(types) == 0 {
		fmt.Fprintln(w, "  no events")
		return
	}
	fmt.Fprintln(w)

	for _, e := range entries {
		delivered := "pending"
		if e.Delivered {
			delivered = "sent"
		}
		parts := []string{
			database.FormatTimestamp(e.CreatedAt.Unix()),
			e.Event.Type,
			delivered,
		}
		if e.Event.UserID != 0 {
			parts = append(parts, fmt.Sprintf("user=%d", e.Event.UserID))
		}
		if e.Event.ChatID != 0 {
			parts = append(parts, fmt.Sprintf("chat=%d", e.Event.ChatID))
		}
		if e.Event.Description != "" {
			parts = append(parts, e.Event.Description)
		}
		fmt.Fprintln(w, strings.Join(parts, "  "))
	}
}
