package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/riotx/riotx/internal/app"
	"github.com/riotx/riotx/internal/devices"
	"github.com/riotx/riotx/internal/format"
	"github.com/riotx/riotx/pkg/client"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "Manage the sessions of the account",
}

var devicesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List devices, most recently seen first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			if err := a.Devices.Refresh(ctx); err != nil {
				return err
			}
			return renderDevices(cmd.OutOrStdout(), sessionFrom(cmd).output, a.Devices.State())
		})
	},
}

var devicesRenameCmd = &cobra.Command{
	Use:   "rename <device-id> <name>",
	Short: "Set the display name of a device",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			if err := a.Devices.Rename(ctx, args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "renamed %s to %q\n", args[0], args[1])
			return nil
		})
	},
}

var devicesDeleteCmd = &cobra.Command{
	Use:   "delete <device-id>...",
	Short: "Sign out one or more devices",
	Long: `Sign out one or more devices. The homeserver usually asks for the
account password; it is prompted for once and reused for the remaining
devices.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			for _, id := range args {
				if id == a.Config.DeviceID {
					return fmt.Errorf("%s is the current session, sign out instead", id)
				}
				if err := deleteDevice(ctx, cmd, a.Devices, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
			}
			return nil
		})
	},
}

func deleteDevice(ctx context.Context, cmd *cobra.Command, m *devices.Manager, id string) error {
	err := m.Delete(ctx, id)
	if !errors.Is(err, devices.ErrPasswordRequired) {
		return err
	}
	password, err := readPassword(cmd, fmt.Sprintf("Password to delete %s: ", id))
	if err != nil {
		m.CancelPassword()
		return err
	}
	if password == "" {
		m.CancelPassword()
		return errors.New("no password given")
	}
	return m.SubmitPassword(ctx, password)
}

// readPassword prompts without echo on a terminal and reads a line otherwise.
func readPassword(cmd *cobra.Command, prompt string) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), prompt)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func renderDevices(w io.Writer, f format.OutputFormat, state devices.State) error {
	return format.Render(w, f, state.Devices, func(w io.Writer) error {
		rows := make([][]string, 0, len(state.Devices))
		for _, d := range state.Devices {
			rows = append(rows, deviceRow(d, d.DeviceID == state.CurrentDeviceID))
		}
		_, err := fmt.Fprintln(w, format.Table([]string{"", "Device", "Name", "Last seen", "IP"}, rows))
		return err
	})
}

func deviceRow(d client.Device, current bool) []string {
	marker := ""
	if current {
		marker = "*"
	}
	seen := "-"
	if d.LastSeenTS > 0 {
		seen = time.UnixMilli(d.LastSeenTS).Local().Format(time.DateTime)
	}
	return []string{marker, d.DeviceID, d.Name(), seen, orDash(d.LastSeenIP)}
}

func init() {
	devicesCmd.AddCommand(devicesListCmd, devicesRenameCmd, devicesDeleteCmd)
}
