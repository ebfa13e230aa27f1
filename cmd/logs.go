package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/riotx/riotx/internal/app"
	"github.com/riotx/riotx/internal/format"
	"github.com/spf13/cobra"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show the log records of past composer sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		prune, _ := cmd.Flags().GetDuration("prune")
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			if prune > 0 {
				n, err := a.Logs.Prune(ctx, time.Now().Add(-prune))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "pruned %d records\n", n)
			}
			logs, err := a.Logs.List(ctx, limit)
			if err != nil {
				return err
			}
			return format.Render(cmd.OutOrStdout(), sessionFrom(cmd).output, logs, func(w io.Writer) error {
				rows := make([][]string, 0, len(logs))
				for _, l := range logs {
					rows = append(rows, []string{l.Timestamp.Local().Format(time.DateTime), l.Level, l.Message})
				}
				_, err := fmt.Fprintln(w, format.Table([]string{"Time", "Level", "Message"}, rows))
				return err
			})
		})
	},
}

var draftsCmd = &cobra.Command{
	Use:   "drafts",
	Short: "List rooms with an unsent draft",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		discard, _ := cmd.Flags().GetBool("discard")
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			rooms, err := a.Drafts.Rooms(ctx)
			if err != nil {
				return err
			}
			if discard {
				for _, room := range rooms {
					if err := a.Drafts.Delete(ctx, room); err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "discarded %d drafts\n", len(rooms))
				return nil
			}

			type entry struct {
				RoomID string `json:"roomId"`
				Text   string `json:"text"`
			}
			entries := make([]entry, 0, len(rooms))
			for _, room := range rooms {
				buf, ok, err := a.Drafts.Load(ctx, room)
				if err != nil || !ok {
					continue
				}
				entries = append(entries, entry{RoomID: room, Text: buf.String()})
			}
			return format.Render(cmd.OutOrStdout(), sessionFrom(cmd).output, entries, func(w io.Writer) error {
				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					rows = append(rows, []string{e.RoomID, e.Text})
				}
				_, err := fmt.Fprintln(w, format.Table([]string{"Room", "Draft"}, rows))
				return err
			})
		})
	},
}

func init() {
	logsCmd.Flags().IntP("limit", "n", 50, "Number of records to show")
	logsCmd.Flags().Duration("prune", 0, "Delete records older than this before listing")
	draftsCmd.Flags().Bool("discard", false, "Delete every draft")
}
