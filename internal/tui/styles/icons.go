package styles

const (
	RiotIcon string = "◆"

	CheckIcon   string = "✓"
	ErrorIcon   string = "✖"
	WarningIcon string = "⚠"
	InfoIcon    string = "ℹ"
	RoomIcon    string = "#"
)
