package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/riotx/riotx/internal/app"
	"github.com/riotx/riotx/internal/config"
	"github.com/riotx/riotx/internal/format"
	"github.com/riotx/riotx/internal/message"
	"github.com/riotx/riotx/internal/text"
	"github.com/spf13/cobra"
)

var sendCmd = &cobra.Command{
	Use:   "send [message...]",
	Short: "Send a message without opening the composer",
	Long: `Send a message to the configured room. The message is taken from the
arguments, or from standard input when it is piped. Complete user ids, room
aliases and :shortcodes: of known entities become pills and emoji, and a
leading slash command is applied, as in the composer.`,
	Example: `  riotx send "hi @alice:example.org :wave:"
  echo "/me is deploying" | riotx send`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s := sessionFrom(cmd)
		if s.cfg.RoomID == "" {
			return config.ErrNoRoom
		}
		body := strings.Join(args, " ")
		if body == "" {
			if piped, ok := checkStdinPipe(); ok {
				body = strings.TrimRight(piped, "\n")
			}
		}
		if strings.TrimSpace(body) == "" {
			return message.ErrEmptyMessage
		}
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			buf, content, err := composeText(ctx, a, body)
			if err != nil {
				return err
			}

			out := struct {
				RoomID  string          `json:"roomId"`
				EventID string          `json:"eventId,omitempty"`
				Content message.Content `json:"content"`
			}{RoomID: s.cfg.RoomID, Content: content}

			if !dryRun {
				out.EventID, err = a.Client.SendMessage(ctx, s.cfg.RoomID, content)
				if err != nil {
					return err
				}
				if _, err := a.History.Add(ctx, s.cfg.RoomID, out.EventID, buf); err != nil {
					slog.Warn("failed to record sent message", "error", err)
				}
			}
			return format.Render(cmd.OutOrStdout(), s.output, out, func(w io.Writer) error {
				if dryRun {
					_, err := io.WriteString(w, format.KeyValues(
						[2]string{"Type", content.MsgType},
						[2]string{"Body", content.Body},
						[2]string{"HTML", orDash(content.FormattedBody)},
					))
					return err
				}
				_, err := fmt.Fprintln(w, out.EventID)
				return err
			})
		})
	},
}

// composeText resolves the entities named in body and renders the message.
func composeText(ctx context.Context, a *app.App, body string) (*text.Buffer, message.Content, error) {
	ac := a.Autocompleter()
	if items, err := a.LoadMembers(ctx); err != nil {
		slog.Warn("members unavailable, mentions stay plain text", "error", err)
	} else {
		ac.SetMembers(items)
	}

	buf := text.NewBuffer(body)
	if n := ac.Resolve(buf); n > 0 {
		slog.Debug("resolved mentions", "count", n)
	}
	content, cmd, err := message.Compose(buf, a.Commands)
	if errors.Is(err, message.ErrUnsupportedCommand) {
		return nil, content, fmt.Errorf("%s cannot be sent as a message", cmd.Trigger())
	}
	return buf, content, err
}

// checkStdinPipe returns what was piped to standard input, if anything.
func checkStdinPipe() (string, bool) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return "", false
	}
	return readPiped(os.Stdin, stat.Mode()&os.ModeCharDevice == 0)
}

func readPiped(r io.Reader, isPipe bool) (string, bool) {
	if !isPipe {
		return "", false
	}
	data, err := io.ReadAll(r)
	if err != nil || len(data) == 0 {
		return "", false
	}
	return string(data), true
}

func init() {
	sendCmd.Flags().Bool("dry-run", false, "Print the message content instead of sending it")
}
