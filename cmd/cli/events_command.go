package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/himanishpuri/AcousticSync/pkg/acousticsync/storage"
)

func newEventsCommand(ctx *commandContext) *cobra.Command {
	var journal string
	var remove bool

	cmd := &cobra.Command{
		Use:   "events [session-id]",
		Short: "List journaled sync sessions, or the events of one session",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if journal == "" {
				journal = cfg.Journal.Path
			}
			if _, err := os.Stat(journal); err != nil {
				return fmt.Errorf("journal %s: %w", journal, err)
			}

			db, err := storage.NewDBClientWithPath(journal)
			if err != nil {
				return err
			}
			defer db.Close()

			out := cmd.OutOrStdout()
			if len(args) == 0 {
				if remove {
					return errors.New("--delete needs a session id")
				}
				sessions, err := db.ListSessions()
				if err != nil {
					return err
				}
				if len(sessions) == 0 {
					fmt.Fprintln(out, "No sessions journaled")
					return nil
				}
				fmt.Fprintln(out, renderSessions(sessions))
				return nil
			}

			id := args[0]
			sess, err := db.GetSession(id)
			if err != nil {
				return err
			}
			if remove {
				if err := db.DeleteSession(id); err != nil {
					return fmt.Errorf("delete session: %w", err)
				}
				fmt.Fprintf(out, "Deleted session %s (%s)\n", id, sess.Title)
				return nil
			}

			events, err := db.ListEvents(id)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s  %s\n", sess.ID, sess.Title)
			if len(events) == 0 {
				fmt.Fprintln(out, "No events")
				return nil
			}
			fmt.Fprintln(out, renderEvents(events))
			return nil
		},
	}

	cmd.Flags().StringVar(&journal, "journal", "", "SQLite journal path (default: journal.path from config)")
	cmd.Flags().BoolVar(&remove, "delete", false, "Delete the given session and its events")
	return cmd
}

func renderSessions(sessions []storage.SyncSession) string {
	headers := []string{"ID", "TITLE", "REFERENCE", "STARTED", "ENDED"}
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		ended := "-"
		if s.EndedAt != nil {
			ended = s.EndedAt.Local().Format(time.DateTime)
		}
		rows = append(rows, []string{
			s.ID,
			s.Title,
			formatTimeline(int64(s.MasterDurationMs)),
			s.StartedAt.Local().Format(time.DateTime),
			ended,
		})
	}
	return renderTable(headers, rows, []columnAlignment{alignLeft, alignLeft, alignRight})
}

func renderEvents(events []storage.SyncEvent) string {
	headers := []string{"AT", "KIND", "TIMELINE", "CONF"}
	rows := make([][]string, 0, len(events))
	for _, e := range events {
		conf := "-"
		if e.Kind == storage.EventCommit {
			conf = fmt.Sprintf("%.1f%%", e.ConfidencePercent)
		}
		rows = append(rows, []string{
			e.CreatedAt.Local().Format(time.TimeOnly),
			string(e.Kind),
			formatTimeline(e.TimelineMs),
			conf,
		})
	}
	return renderTable(headers, rows, []columnAlignment{alignLeft, alignLeft, alignRight, alignRight})
}

// formatTimeline renders milliseconds as h:mm:ss.mmm.
func formatTimeline(ms int64) string {
	sign := ""
	if ms < 0 {
		sign = "-"
		ms = -ms
	}
	d := time.Duration(ms) * time.Millisecond
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%s%d:%02d:%02d.%03d", sign, h, m, s, ms%1000)
}
