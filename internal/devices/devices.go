// Package devices lists, renames and deletes the account's sessions.
// Deletion goes through user-interactive authentication with a password that
// is remembered across deletions until any request fails.
package devices

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/riotx/riotx/internal/pubsub"
	"github.com/riotx/riotx/pkg/client"
)

var (
	ErrPasswordRequired  = errors.New("password required to delete device")
	ErrNoPendingDeletion = errors.New("no device deletion is waiting for a password")
	ErrUnsupportedAuth   = errors.New("homeserver does not offer password authentication")
)

// RequestStatus is the state of the last request made by the Manager.
type RequestStatus string

const (
	Idle    RequestStatus = "idle"
	Loading RequestStatus = "loading"
	Failed  RequestStatus = "failed"
)

// API is the part of the Matrix client the Manager needs.
type API interface {
	ListDevices(ctx context.Context) ([]client.Device, error)
	UpdateDevice(ctx context.Context, deviceID, displayName string) error
	DeleteDevice(ctx context.Context, deviceID string, auth *client.Auth) error
}

// State is what the Manager publishes after every change.
type State struct {
	Devices         []client.Device
	CurrentDeviceID string
	Status          RequestStatus
	Err             error
}

// Current returns the device this client runs as, if listed.
func (s State) Current() (client.Device, bool) {
	for _, d := range s.Devices {
		if d.DeviceID == s.CurrentDeviceID {
			return d, true
		}
	}
	return client.Device{}, false
}

// Others returns every device except the current one.
func (s State) Others() []client.Device {
	out := make([]client.Device, 0, len(s.Devices))
	for _, d := range s.Devices {
		if d.DeviceID != s.CurrentDeviceID {
			out = append(out, d)
		}
	}
	return out
}

// PasswordRequest is published when a deletion needs the account password.
type PasswordRequest struct {
	DeviceID string
}

type Manager struct {
	*pubsub.Broker[State]
	Passwords *pubsub.Broker[PasswordRequest]

	api    API
	userID string

	mu       sync.Mutex
	state    State
	password string
	pending  string // device id waiting for SubmitPassword
	session  string
}

func NewManager(api API, userID, currentDeviceID string) *Manager {
	return &Manager{
		Broker:    pubsub.NewBroker[State](),
		Passwords: pubsub.NewBroker[PasswordRequest](),
		api:       api,
		userID:    userID,
		state:     State{CurrentDeviceID: currentDeviceID, Status: Idle},
	}
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.state
	s.Devices = slices.Clone(m.state.Devices)
	return s
}

func (m *Manager) setStatus(status RequestStatus, err error) {
	m.mu.Lock()
	m.state.Status = status
	m.state.Err = err
	if status == Failed {
		m.password = ""
	}
	s := m.state
	m.mu.Unlock()
	m.Publish(pubsub.Updated, s)
}

func (m *Manager) fail(err error) error {
	m.setStatus(Failed, err)
	return err
}

// Refresh reloads the device list, newest activity first.
func (m *Manager) Refresh(ctx context.Context) error {
	m.setStatus(Loading, nil)
	devices, err := m.api.ListDevices(ctx)
	if err != nil {
		return m.fail(fmt.Errorf("listing devices: %w", err))
	}
	slices.SortStableFunc(devices, func(a, b client.Device) int {
		if c := cmp.Compare(b.LastSeenTS, a.LastSeenTS); c != 0 {
			return c
		}
		return cmp.Compare(a.DeviceID, b.DeviceID)
	})

	m.mu.Lock()
	m.state.Devices = devices
	m.mu.Unlock()
	m.setStatus(Idle, nil)
	return nil
}

// Rename sets a device's display name and refreshes the list.
func (m *Manager) Rename(ctx context.Context, deviceID, name string) error {
	m.setStatus(Loading, nil)
	if err := m.api.UpdateDevice(ctx, deviceID, name); err != nil {
		return m.fail(fmt.Errorf("renaming device %s: %w", deviceID, err))
	}
	return m.Refresh(ctx)
}

// Delete removes a device. When the server asks for authentication and no
// password is cached, a PasswordRequest is published and ErrPasswordRequired
// returned; call SubmitPassword to resume.
func (m *Manager) Delete(ctx context.Context, deviceID string) error {
	m.setStatus(Loading, nil)

	err := m.api.DeleteDevice(ctx, deviceID, nil)
	if err == nil {
		return m.Refresh(ctx)
	}
	hsErr, ok := client.AsError(err)
	if !ok || !hsErr.IsAuthRequired() {
		return m.fail(fmt.Errorf("deleting device %s: %w", deviceID, err))
	}
	if !hsErr.SupportsStage(client.StagePassword) {
		return m.fail(fmt.Errorf("deleting device %s: %w", deviceID, ErrUnsupportedAuth))
	}

	m.mu.Lock()
	m.session = hsErr.Session
	password := m.password
	if password == "" {
		m.pending = deviceID
	}
	m.mu.Unlock()

	if password == "" {
		slog.Debug("password needed for device deletion", "device", deviceID)
		m.setStatus(Idle, nil)
		m.Passwords.Publish(pubsub.Requested, PasswordRequest{DeviceID: deviceID})
		return ErrPasswordRequired
	}
	return m.deleteWithPassword(ctx, deviceID, hsErr.Session, password)
}

// SubmitPassword caches password and resumes the deletion waiting for it.
func (m *Manager) SubmitPassword(ctx context.Context, password string) error {
	m.mu.Lock()
	deviceID, session := m.pending, m.session
	if deviceID == "" {
		m.mu.Unlock()
		return ErrNoPendingDeletion
	}
	m.pending = ""
	m.password = password
	m.mu.Unlock()

	m.setStatus(Loading, nil)
	return m.deleteWithPassword(ctx, deviceID, session, password)
}

// CancelPassword drops the deletion waiting for a password.
func (m *Manager) CancelPassword() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = ""
	m.session = ""
}

func (m *Manager) deleteWithPassword(ctx context.Context, deviceID, session, password string) error {
	err := m.api.DeleteDevice(ctx, deviceID, client.PasswordAuth(session, m.userID, password))
	if err != nil {
		return m.fail(fmt.Errorf("deleting device %s: %w", deviceID, err))
	}
	slog.Info("device deleted", "device", deviceID)
	return m.Refresh(ctx)
}

// HasPassword reports whether a password is cached.
func (m *Manager) HasPassword() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.password != ""
}

// Shutdown closes both brokers.
func (m *Manager) Shutdown() {
	m.Broker.Shutdown()
	m.Passwords.Shutdown()
}
