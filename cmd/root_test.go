package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/riotx/riotx/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const roomID = "!room:example.org"

func TestCheckStdinPipe(t *testing.T) {
	origStdin := os.Stdin
	defer func() {
		os.Stdin = origStdin
	}()

	t.Run("WithPipedData", func(t *testing.T) {
		r, w, err := os.Pipe()
		require.NoError(t, err)
		os.Stdin = r

		go func() {
			defer w.Close()
			_, _ = w.Write([]byte("test piped input"))
		}()

		data, hasPiped := checkStdinPipe()
		assert.True(t, hasPiped)
		assert.Equal(t, "test piped input", data)
	})

	t.Run("EmptyFile", func(t *testing.T) {
		f, err := os.Create(filepath.Join(t.TempDir(), "stdin"))
		require.NoError(t, err)
		defer f.Close()
		os.Stdin = f

		data, hasPiped := checkStdinPipe()
		assert.False(t, hasPiped)
		assert.Empty(t, data)
	})
}

func TestReadPiped(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		isPipe bool
		want   string
		ok     bool
	}{
		{"with data", "test data", true, "test data", true},
		{"without data", "", true, "", false},
		{"not a pipe", "data that should be ignored", false, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, ok := readPiped(bytes.NewBufferString(tt.input), tt.isPipe)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, data)
		})
	}
}

// fakeHomeserver answers the requests the commands make and records what was
// sent to it.
type fakeHomeserver struct {
	t    *testing.T
	sent []map[string]any
}

func (h *fakeHomeserver) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	path := r.URL.Path
	switch {
	case path == "/_matrix/client/versions":
		_, _ = w.Write([]byte(`{"versions":["r0.5.0","r0.6.0"],"unstable_features":{"m.lazy_load_members":true}}`))
	case path == "/_matrix/client/r0/capabilities":
		_, _ = w.Write([]byte(`{"capabilities":{"m.change_password":{"enabled":false},"m.room_versions":{"default":"5","available":{"5":"stable"}}}}`))
	case path == "/_matrix/client/r0/account/whoami":
		_, _ = w.Write([]byte(`{"user_id":"@me:example.org","device_id":"CURRENT"}`))
	case path == "/_matrix/client/r0/rooms/"+roomID+"/joined_members":
		_, _ = w.Write([]byte(`{"joined":{"@alice:example.org":{"display_name":"Alice"}}}`))
	case strings.HasPrefix(path, "/_matrix/client/r0/rooms/"+roomID+"/send/m.room.message/"):
		var content map[string]any
		assert.NoError(h.t, json.NewDecoder(r.Body).Decode(&content))
		h.sent = append(h.sent, content)
		_, _ = w.Write([]byte(`{"event_id":"$sent"}`))
	case path == "/_matrix/client/r0/devices":
		_, _ = w.Write([]byte(`{"devices":[
			{"device_id":"CURRENT","display_name":"riotx","last_seen_ts":2000},
			{"device_id":"OLD","display_name":"old phone","last_seen_ts":1000}
		]}`))
	case path == "/_matrix/client/r0/devices/OLD" && r.Method == http.MethodDelete:
		var req struct {
			Auth *struct {
				Password string `json:"password"`
			} `json:"auth"`
		}
		assert.NoError(h.t, json.NewDecoder(r.Body).Decode(&req))
		if req.Auth == nil || req.Auth.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"session":"S1","flows":[{"stages":["m.login.password"]}]}`))
			return
		}
		_, _ = w.Write([]byte(`{}`))
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"errcode":"M_UNRECOGNIZED","error":"unrecognized"}`))
	}
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// execute runs the root command in a fresh home and working directory.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	for _, key := range []string{"RIOTX_HOMESERVER", "RIOTX_ACCESSTOKEN", "RIOTX_ROOMID", "RIOTX_USERID", "RIOTX_DEVICEID"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	resetFlags(rootCmd)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		resetFlags(rootCmd)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func sessionFlags(srv *httptest.Server) []string {
	return []string{"--homeserver", srv.URL, "--token", "token", "--room", roomID}
}

func TestVersionsCommand(t *testing.T) {
	t.Chdir(t.TempDir())
	srv := httptest.NewServer(&fakeHomeserver{t: t})
	defer srv.Close()

	out, err := execute(t, "", append([]string{"versions", "-f", "json"}, sessionFlags(srv)...)...)
	require.NoError(t, err)

	var got struct {
		Versions         []string        `json:"versions"`
		UnstableFeatures map[string]bool `json:"unstable_features"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, []string{"r0.5.0", "r0.6.0"}, got.Versions)
	assert.True(t, got.UnstableFeatures["m.lazy_load_members"])
}

func TestPingCommand(t *testing.T) {
	t.Chdir(t.TempDir())
	srv := httptest.NewServer(&fakeHomeserver{t: t})
	defer srv.Close()

	out, err := execute(t, "", append([]string{"ping"}, sessionFlags(srv)...)...)
	require.NoError(t, err)
	assert.Contains(t, out, srv.URL+" is reachable")
}

func TestCommandsNeedSession(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := execute(t, "", "ping", "--homeserver", "https://example.org")
	assert.ErrorIs(t, err, config.ErrNoAccessToken)

	_, err = execute(t, "", "versions", "-f", "yaml", "--homeserver", "https://example.org", "--token", "t")
	assert.ErrorContains(t, err, "unsupported output format")
}

func TestCapabilitiesCommandCaches(t *testing.T) {
	t.Chdir(t.TempDir())
	srv := httptest.NewServer(&fakeHomeserver{t: t})
	defer srv.Close()

	run := func(extra ...string) map[string]any {
		out, err := execute(t, "", append(append([]string{"capabilities", "-f", "json"}, sessionFlags(srv)...), extra...)...)
		require.NoError(t, err)
		var got map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		return got
	}

	first := run()
	assert.Equal(t, true, first["fetched"])
	assert.Equal(t, false, first["canChangePassword"])
	assert.Equal(t, "5", first["defaultRoomVersion"])
	assert.Equal(t, true, first["supported"])

	assert.Equal(t, false, run()["fetched"], "second run is served from the cache")
	assert.Equal(t, true, run("--force")["fetched"])
}

func TestSendCommand(t *testing.T) {
	t.Chdir(t.TempDir())
	hs := &fakeHomeserver{t: t}
	srv := httptest.NewServer(hs)
	defer srv.Close()

	out, err := execute(t, "", append([]string{"send"}, append(sessionFlags(srv), "hi", "@alice:example.org", ":wave:")...)...)
	require.NoError(t, err)
	assert.Equal(t, "$sent\n", out)

	require.Len(t, hs.sent, 1)
	assert.Equal(t, "m.text", hs.sent[0]["msgtype"])
	assert.Equal(t, "hi Alice 👋", hs.sent[0]["body"])
	assert.Equal(t, `hi <a href="https://matrix.to/#/@alice:example.org">Alice</a> 👋`, hs.sent[0]["formatted_body"])
}

func TestSendCommandDryRun(t *testing.T) {
	t.Chdir(t.TempDir())
	hs := &fakeHomeserver{t: t}
	srv := httptest.NewServer(hs)
	defer srv.Close()

	out, err := execute(t, "", append([]string{"send", "--dry-run", "-f", "json"}, append(sessionFlags(srv), "/me waves")...)...)
	require.NoError(t, err)
	assert.Empty(t, hs.sent)

	var got struct {
		RoomID  string `json:"roomId"`
		EventID string `json:"eventId"`
		Content struct {
			MsgType string `json:"msgtype"`
			Body    string `json:"body"`
		} `json:"content"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, roomID, got.RoomID)
	assert.Empty(t, got.EventID)
	assert.Equal(t, "m.emote", got.Content.MsgType)
	assert.Equal(t, "waves", got.Content.Body)

	_, err = execute(t, "", append([]string{"send", "--dry-run"}, append(sessionFlags(srv), "/ban @spam:example.org")...)...)
	assert.ErrorContains(t, err, "/ban cannot be sent as a message")
}

func TestDevicesCommands(t *testing.T) {
	t.Chdir(t.TempDir())
	srv := httptest.NewServer(&fakeHomeserver{t: t})
	defer srv.Close()

	out, err := execute(t, "", append([]string{"devices", "list"}, sessionFlags(srv)...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "old phone")
	assert.Less(t, strings.Index(out, "CURRENT"), strings.Index(out, "OLD"), "most recently seen first")

	out, err = execute(t, "secret\n", append([]string{"devices", "delete", "OLD"}, sessionFlags(srv)...)...)
	require.NoError(t, err)
	assert.Equal(t, "deleted OLD\n", out)

	_, err = execute(t, "", append([]string{"devices", "delete", "CURRENT"}, sessionFlags(srv)...)...)
	assert.ErrorContains(t, err, "current session")

	_, err = execute(t, "wrong\n", append([]string{"devices", "delete", "OLD"}, sessionFlags(srv)...)...)
	assert.Error(t, err)
}
