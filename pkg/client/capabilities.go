package client

import (
	"context"
	"net/http"
	"strconv"
	"strings"
)

// BooleanCapability is a capability that can only be switched on or off.
type BooleanCapability struct {
	Enabled bool `json:"enabled"`
}

// RoomVersionsCapability lists the room versions the server supports.
type RoomVersionsCapability struct {
	Default   string            `json:"default"`
	Available map[string]string `json:"available"`
}

// Capabilities is the "capabilities" object of GET /capabilities.
type Capabilities struct {
	ChangePassword *BooleanCapability      `json:"m.change_password,omitempty"`
	RoomVersions   *RoomVersionsCapability `json:"m.room_versions,omitempty"`
}

type capabilitiesResponse struct {
	Capabilities Capabilities `json:"capabilities"`
}

// CanChangePassword defaults to true when the server does not say.
func (c Capabilities) CanChangePassword() bool {
	if c.ChangePassword == nil {
		return true
	}
	return c.ChangePassword.Enabled
}

// DefaultRoomVersion returns the server's preferred room version, if known.
func (c Capabilities) DefaultRoomVersion() string {
	if c.RoomVersions == nil {
		return ""
	}
	return c.RoomVersions.Default
}

// Versions is the response of GET /versions.
type Versions struct {
	Versions         []string        `json:"versions"`
	UnstableFeatures map[string]bool `json:"unstable_features,omitempty"`
}

// Supports reports whether the server advertises exactly version.
func (v Versions) Supports(version string) bool {
	for _, s := range v.Versions {
		if s == version {
			return true
		}
	}
	return false
}

// SupportsUnstable reports whether an unstable feature flag is on.
func (v Versions) SupportsUnstable(feature string) bool {
	return v.UnstableFeatures[feature]
}

// AtLeast reports whether any advertised version is at or above version.
// Both "r0.x.y" and "vX.Y" forms are understood; r0 sorts below v1.
func (v Versions) AtLeast(version string) bool {
	want, ok := parseSpecVersion(version)
	if !ok {
		return false
	}
	for _, s := range v.Versions {
		got, ok := parseSpecVersion(s)
		if ok && compareSpecVersions(got, want) >= 0 {
			return true
		}
	}
	return false
}

// SupportsLazyLoadMembers is what the client needs to sync at all.
func (v Versions) SupportsLazyLoadMembers() bool {
	return v.AtLeast("r0.5.0") || v.SupportsUnstable("m.lazy_load_members")
}

// RequiresIdentityServerParam reports whether registration requests must
// carry an id_server parameter.
func (v Versions) RequiresIdentityServerParam() bool {
	if v.AtLeast("r0.6.0") {
		return false
	}
	required, ok := v.UnstableFeatures["m.require_identity_server"]
	return !ok || required
}

// IsSupportedBySDK reports whether this client can work with the server.
func (v Versions) IsSupportedBySDK() bool {
	return v.SupportsLazyLoadMembers()
}

// IsLoginAndRegistrationSupportedBySDK reports whether login/registration
// can proceed without an identity server.
func (v Versions) IsLoginAndRegistrationSupportedBySDK() bool {
	return !v.RequiresIdentityServerParam()
}

func parseSpecVersion(s string) ([3]int, bool) {
	var out [3]int
	switch {
	case strings.HasPrefix(s, "r"):
		out[0] = 0
		parts := strings.Split(strings.TrimPrefix(s, "r"), ".")
		if len(parts) != 3 {
			return out, false
		}
		for i, p := range parts {
			n, err := strconv.Atoi(p)
			if err != nil {
				return out, false
			}
			out[i] = n
		}
		// r0.x.y sorts as 0.x.y
		return [3]int{0, out[1], out[2]}, out[0] == 0
	case strings.HasPrefix(s, "v"):
		parts := strings.Split(strings.TrimPrefix(s, "v"), ".")
		if len(parts) < 2 || len(parts) > 3 {
			return out, false
		}
		for i, p := range parts {
			n, err := strconv.Atoi(p)
			if err != nil {
				return out, false
			}
			out[i] = n
		}
		return out, out[0] >= 1
	}
	return out, false
}

func compareSpecVersions(a, b [3]int) int {
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// GetCapabilities requests the homeserver capabilities.
func (c *Client) GetCapabilities(ctx context.Context) (*Capabilities, error) {
	var resp capabilitiesResponse
	if err := c.do(ctx, http.MethodGet, apiPrefixR0+"capabilities", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Capabilities, nil
}

// GetVersions requests the Matrix API versions the homeserver supports.
func (c *Client) GetVersions(ctx context.Context) (*Versions, error) {
	var v Versions
	if err := c.do(ctx, http.MethodGet, apiPrefix+"versions", nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Ping checks the homeserver is reachable. The response body is discarded.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, apiPrefix+"versions", nil, nil)
}
