// Package status carries short user-facing messages to the status line.
package status

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/riotx/riotx/internal/pubsub"
)

type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
	LevelDebug Level = "debug"
)

// StatusMessage is one line for the status bar.
type StatusMessage struct {
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type Service struct {
	*pubsub.Broker[StatusMessage]
}

func NewService() *Service {
	return &Service{Broker: pubsub.NewBroker[StatusMessage]()}
}

func (s *Service) Info(message string)  { s.publish(LevelInfo, message) }
func (s *Service) Warn(message string)  { s.publish(LevelWarn, message) }
func (s *Service) Error(message string) { s.publish(LevelError, message) }
func (s *Service) Debug(message string) { s.publish(LevelDebug, message) }

// Errorf publishes err prefixed by a formatted context string.
func (s *Service) Errorf(err error, format string, args ...any) {
	s.publish(LevelError, fmt.Sprintf(format, args...)+": "+err.Error())
}

func (s *Service) publish(level Level, message string) {
	s.Publish(pubsub.Created, StatusMessage{
		Level:     level,
		Message:   message,
		Timestamp: time.Now(),
	})
}

var (
	mu             sync.RWMutex
	defaultService *Service
)

// Default returns the process wide service, creating it on first use.
func Default() *Service {
	mu.RLock()
	s := defaultService
	mu.RUnlock()
	if s != nil {
		return s
	}

	mu.Lock()
	defer mu.Unlock()
	if defaultService == nil {
		defaultService = NewService()
		slog.Debug("status service initialized")
	}
	return defaultService
}

func Info(message string)  { Default().Info(message) }
func Warn(message string)  { Default().Warn(message) }
func Error(message string) { Default().Error(message) }
func Debug(message string) { Default().Debug(message) }
