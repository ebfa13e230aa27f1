package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/riotx/riotx/internal/autocomplete"
	"github.com/riotx/riotx/internal/status"
)

var (
	Primary    = lipgloss.AdaptiveColor{Light: "#0DBD8B", Dark: "#0DBD8B"}
	Text       = lipgloss.AdaptiveColor{Light: "#17191C", Dark: "#EDF3FF"}
	TextMuted  = lipgloss.AdaptiveColor{Light: "#737D8C", Dark: "#8E99A4"}
	Background = lipgloss.AdaptiveColor{Light: "#F4F6FA", Dark: "#21262C"}
	Border     = lipgloss.AdaptiveColor{Light: "#E3E8F0", Dark: "#394049"}
	Warning    = lipgloss.AdaptiveColor{Light: "#FF812D", Dark: "#FF812D"}
	Error      = lipgloss.AdaptiveColor{Light: "#FF4B55", Dark: "#FF4B55"}
	Info       = lipgloss.AdaptiveColor{Light: "#0086E6", Dark: "#368BD6"}
)

func BaseStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(Text)
}

func Padded() lipgloss.Style {
	return BaseStyle().Padding(0, 1)
}

func Muted() lipgloss.Style {
	return BaseStyle().Foreground(TextMuted)
}

// Pill styles an inserted mention by kind.
func Pill(kind autocomplete.Kind) lipgloss.Style {
	s := lipgloss.NewStyle().Bold(true)
	switch kind {
	case autocomplete.KindMember:
		return s.Foreground(Primary)
	case autocomplete.KindRoom:
		return s.Foreground(Info)
	default:
		return s.Foreground(Warning)
	}
}

// Level colors a status message.
func Level(level status.Level) lipgloss.Style {
	s := Padded().Foreground(Background)
	switch level {
	case status.LevelError:
		return s.Background(Error)
	case status.LevelWarn:
		return s.Background(Warning)
	case status.LevelInfo:
		return s.Background(Info)
	default:
		return s.Background(TextMuted)
	}
}

func LevelIcon(level status.Level) string {
	switch level {
	case status.LevelError:
		return ErrorIcon
	case status.LevelWarn:
		return WarningIcon
	default:
		return InfoIcon
	}
}
