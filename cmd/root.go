package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/riotx/riotx/internal/app"
	"github.com/riotx/riotx/internal/config"
	"github.com/riotx/riotx/internal/db"
	"github.com/riotx/riotx/internal/format"
	"github.com/riotx/riotx/internal/logging"
	"github.com/riotx/riotx/internal/version"
	"github.com/spf13/cobra"
)

type contextKey struct{}

// session is what PersistentPreRunE prepares for every subcommand.
type session struct {
	cfg    *config.Config
	output format.OutputFormat
}

func sessionFrom(cmd *cobra.Command) *session {
	s, _ := cmd.Context().Value(contextKey{}).(*session)
	return s
}

var rootCmd = &cobra.Command{
	Use:   "riotx",
	Short: "A terminal Matrix message composer",
	Long: `riotx composes and sends Matrix messages from the terminal.
Mentions of users, rooms and groups are completed as you type and sent as
pills, emoji shortcodes are replaced by their glyphs, and slash commands are
applied before sending. It also inspects what the homeserver supports and
manages the devices of the account.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		debug, _ := cmd.Flags().GetBool("debug")
		slog.SetDefault(slog.New(logging.NewCLIHandler(cmd.ErrOrStderr(), debug)))

		cwd, _ := cmd.Flags().GetString("cwd")
		if cwd != "" {
			if err := os.Chdir(cwd); err != nil {
				return fmt.Errorf("failed to change directory: %v", err)
			}
		}
		if cwd == "" {
			c, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get current working directory: %v", err)
			}
			cwd = c
		}

		outputFormatStr, _ := cmd.Flags().GetString("output-format")
		output, err := format.Parse(outputFormatStr)
		if err != nil {
			return err
		}

		homeserver, _ := cmd.Flags().GetString("homeserver")
		token, _ := cmd.Flags().GetString("token")
		room, _ := cmd.Flags().GetString("room")
		cfg, err := config.Load(config.Options{
			WorkingDir:  cwd,
			Debug:       debug,
			Homeserver:  homeserver,
			AccessToken: token,
			RoomID:      room,
		})
		if err != nil {
			return err
		}
		if cfg.Debug {
			slog.SetDefault(slog.New(logging.NewCLIHandler(cmd.ErrOrStderr(), true)))
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		cmd.SetContext(context.WithValue(ctx, contextKey{}, &session{cfg: cfg, output: output}))
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flag("version").Changed {
			fmt.Fprintln(cmd.OutOrStdout(), version.Version)
			return nil
		}
		return runCompose(cmd)
	},
}

// withApp connects the database and the homeserver services for the
// duration of fn.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	s := sessionFrom(cmd)
	if s == nil {
		return errors.New("command context is not initialized")
	}
	ctx := cmd.Context()

	conn, err := db.Connect(ctx, s.cfg.Data.Directory)
	if err != nil {
		return err
	}
	defer conn.Close()

	a, err := app.New(ctx, s.cfg, conn)
	if err != nil {
		return err
	}
	defer a.Shutdown()
	return fn(ctx, a)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Version")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Debug")
	rootCmd.PersistentFlags().StringP("cwd", "c", "", "Current working directory")
	rootCmd.PersistentFlags().String("homeserver", "", "Homeserver base URL")
	rootCmd.PersistentFlags().String("token", "", "Access token")
	rootCmd.PersistentFlags().StringP("room", "r", "", "Room id to compose in")
	rootCmd.PersistentFlags().StringP("output-format", "f", "text", "Output format (text, json)")

	rootCmd.AddCommand(capabilitiesCmd, versionsCmd, pingCmd, devicesCmd, sendCmd, logsCmd, draftsCmd)
}
