package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"
	"strings"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/go-logfmt/logfmt"
)

type writer struct {
	svc *Service
}

// NewWriter returns an io.Writer that decodes logfmt records, as written by
// slog.TextHandler, and stores them through svc.
func NewWriter(svc *Service) io.Writer {
	return &writer{svc: svc}
}

func (w *writer) Write(p []byte) (int, error) {
	d := logfmt.NewDecoder(bytes.NewReader(p))
	for d.ScanRecord() {
		l := Log{Attributes: map[string]string{}}
		for d.ScanKeyval() {
			key, value := string(d.Key()), string(d.Value())
			switch key {
			case "time":
				if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
					l.Timestamp = t
				}
			case "level":
				l.Level = strings.ToLower(value)
			case "msg":
				l.Message = value
			default:
				l.Attributes[key] = value
			}
		}
		if d.Err() != nil {
			return len(p), fmt.Errorf("decoding log record: %w", d.Err())
		}
		if err := w.svc.Create(context.Background(), l); err != nil {
			// slog would recurse into this writer
			fmt.Fprintf(os.Stderr, "riotx: failed to persist log: %v\n", err)
		}
	}
	if d.Err() != nil {
		return len(p), fmt.Errorf("decoding log record: %w", d.Err())
	}
	return len(p), nil
}

// NewTUIHandler routes slog output into svc while the terminal is taken
// over by the TUI.
func NewTUIHandler(svc *Service, debug bool) slog.Handler {
	return slog.NewTextHandler(NewWriter(svc), &slog.HandlerOptions{Level: level(debug)})
}

// NewCLIHandler writes human readable records to w.
func NewCLIHandler(w io.Writer, debug bool) slog.Handler {
	l := charmlog.NewWithOptions(w, charmlog.Options{
		ReportTimestamp: debug,
		TimeFormat:      time.Kitchen,
		Prefix:          "riotx",
	})
	if debug {
		l.SetLevel(charmlog.DebugLevel)
	} else {
		l.SetLevel(charmlog.InfoLevel)
	}
	return l
}

func level(debug bool) slog.Level {
	if debug {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// RecoverPanic logs a panic, writes its stack to a file in the working
// directory and runs cleanup. Use it deferred.
func RecoverPanic(name string, cleanup func()) {
	r := recover()
	if r == nil {
		return
	}
	slog.Error("panic", "in", name, "value", r)

	filename := fmt.Sprintf("riotx-panic-%s-%s.log", name, time.Now().Format("20060102-150405"))
	if f, err := os.Create(filename); err != nil {
		slog.Error("failed to create panic log", "file", filename, "error", err)
	} else {
		fmt.Fprintf(f, "Panic in %s: %v\n\n", name, r)
		fmt.Fprintf(f, "Time: %s\n\n", time.Now().Format(time.RFC3339))
		fmt.Fprintf(f, "Stack Trace:\n%s\n", debug.Stack())
		f.Close()
		slog.Info("panic details written", "file", filename)
	}

	if cleanup != nil {
		cleanup()
	}
}
