package client

import (
	"context"
	"net/http"
)

// StagePassword is the password stage of user-interactive authentication.
const StagePassword = "m.login.password"

// Device is one entry of GET /devices.
type Device struct {
	DeviceID    string `json:"device_id"`
	DisplayName string `json:"display_name,omitempty"`
	LastSeenIP  string `json:"last_seen_ip,omitempty"`
	LastSeenTS  int64  `json:"last_seen_ts,omitempty"`
}

// Name returns the display name, falling back to the device id.
func (d Device) Name() string {
	if d.DisplayName != "" {
		return d.DisplayName
	}
	return d.DeviceID
}

type devicesResponse struct {
	Devices []Device `json:"devices"`
}

// AuthIdentifier identifies the user in a password auth stage.
type AuthIdentifier struct {
	Type string `json:"type"`
	User string `json:"user"`
}

// Auth is the auth dictionary sent to complete an interactive stage.
type Auth struct {
	Type       string          `json:"type"`
	Session    string          `json:"session,omitempty"`
	User       string          `json:"user,omitempty"`
	Identifier *AuthIdentifier `json:"identifier,omitempty"`
	Password   string          `json:"password,omitempty"`
}

// PasswordAuth builds the m.login.password stage for userID.
func PasswordAuth(session, userID, password string) *Auth {
	return &Auth{
		Type:       StagePassword,
		Session:    session,
		User:       userID,
		Identifier: &AuthIdentifier{Type: "m.id.user", User: userID},
		Password:   password,
	}
}

type deleteDeviceRequest struct {
	Auth *Auth `json:"auth,omitempty"`
}

type updateDeviceRequest struct {
	DisplayName string `json:"display_name"`
}

func devicePath(deviceID string) (string, error) {
	p, err := pathParam("deviceId", deviceID)
	if err != nil {
		return "", err
	}
	return apiPrefixR0 + "devices/" + p, nil
}

// ListDevices returns the devices of the current user.
func (c *Client) ListDevices(ctx context.Context) ([]Device, error) {
	var resp devicesResponse
	if err := c.do(ctx, http.MethodGet, apiPrefixR0+"devices", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Devices, nil
}

// GetDevice returns a single device.
func (c *Client) GetDevice(ctx context.Context, deviceID string) (*Device, error) {
	path, err := devicePath(deviceID)
	if err != nil {
		return nil, err
	}
	var d Device
	if err := c.do(ctx, http.MethodGet, path, nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// UpdateDevice sets the display name of a device.
func (c *Client) UpdateDevice(ctx context.Context, deviceID, displayName string) error {
	path, err := devicePath(deviceID)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPut, path, updateDeviceRequest{DisplayName: displayName}, nil)
}

// DeleteDevice deletes a device. The first call usually carries no auth and
// fails with an *Error for which IsAuthRequired is true.
func (c *Client) DeleteDevice(ctx context.Context, deviceID string, auth *Auth) error {
	path, err := devicePath(deviceID)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, path, deleteDeviceRequest{Auth: auth}, nil)
}
