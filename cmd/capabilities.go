package cmd

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/riotx/riotx/internal/app"
	"github.com/riotx/riotx/internal/format"
	"github.com/riotx/riotx/internal/homeserver"
	"github.com/riotx/riotx/pkg/client"
	"github.com/spf13/cobra"
)

// newClient builds a client for commands that do not need local storage.
func newClient(cmd *cobra.Command) (*client.Client, *session, error) {
	s := sessionFrom(cmd)
	if err := s.cfg.RequireSession(); err != nil {
		return nil, nil, err
	}
	return client.New(s.cfg.Homeserver, s.cfg.AccessToken), s, nil
}

var capabilitiesCmd = &cobra.Command{
	Use:   "capabilities",
	Short: "Show what the homeserver supports",
	Long: `Show the cached homeserver capabilities and supported versions.
The cache is refreshed from the homeserver when it is older than the
configured minimum refresh delay, or always with --force.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			fetched, err := a.Homeserver.Refresh(ctx, force)
			if err != nil {
				return err
			}
			snap, _ := a.Homeserver.Snapshot()
			versions := a.Homeserver.Versions()

			out := struct {
				homeserver.Snapshot
				Fetched         bool `json:"fetched"`
				Supported       bool `json:"supported"`
				LoginSupported  bool `json:"loginSupported"`
				LazyLoadMembers bool `json:"lazyLoadMembers"`
			}{snap, fetched, versions.IsSupportedBySDK(), versions.IsLoginAndRegistrationSupportedBySDK(), versions.SupportsLazyLoadMembers()}

			return format.Render(cmd.OutOrStdout(), sessionFrom(cmd).output, out, func(w io.Writer) error {
				source := "cache"
				if fetched {
					source = "homeserver"
				}
				_, err := io.WriteString(w, format.KeyValues(
					[2]string{"Homeserver", snap.Homeserver},
					[2]string{"Change password", yesNo(snap.CanChangePassword)},
					[2]string{"Default room version", orDash(snap.DefaultRoomVersion)},
					[2]string{"Versions", strings.Join(snap.Versions, ", ")},
					[2]string{"Supported", yesNo(versions.IsSupportedBySDK())},
					[2]string{"Login supported", yesNo(versions.IsLoginAndRegistrationSupportedBySDK())},
					[2]string{"Updated", snap.LastUpdated.Local().Format(time.DateTime) + " (" + source + ")"},
				))
				return err
			})
		})
	},
}

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "List the client-server API versions of the homeserver",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, s, err := newClient(cmd)
		if err != nil {
			return err
		}
		v, err := c.GetVersions(cmd.Context())
		if err != nil {
			return err
		}
		return format.Render(cmd.OutOrStdout(), s.output, v, func(w io.Writer) error {
			rows := make([][]string, 0, len(v.Versions)+len(v.UnstableFeatures))
			for _, version := range v.Versions {
				rows = append(rows, []string{version, "stable", "yes"})
			}
			features := make([]string, 0, len(v.UnstableFeatures))
			for f := range v.UnstableFeatures {
				features = append(features, f)
			}
			slices.Sort(features)
			for _, f := range features {
				rows = append(rows, []string{f, "unstable", yesNo(v.UnstableFeatures[f])})
			}
			_, err := fmt.Fprintln(w, format.Table([]string{"Version", "Kind", "Enabled"}, rows))
			return err
		})
	},
}

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the homeserver is reachable",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, s, err := newClient(cmd)
		if err != nil {
			return err
		}
		start := time.Now()
		if err := c.Ping(cmd.Context()); err != nil {
			return err
		}
		elapsed := time.Since(start)
		out := struct {
			Homeserver string `json:"homeserver"`
			ElapsedMS  int64  `json:"elapsedMs"`
		}{s.cfg.Homeserver, elapsed.Milliseconds()}
		return format.Render(cmd.OutOrStdout(), s.output, out, func(w io.Writer) error {
			_, err := fmt.Fprintf(w, "%s is reachable (%dms)\n", s.cfg.Homeserver, out.ElapsedMS)
			return err
		})
	},
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func init() {
	capabilitiesCmd.Flags().Bool("force", false, "Refresh from the homeserver even if the cache is fresh")
}
