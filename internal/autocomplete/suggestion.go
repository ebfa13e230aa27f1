package autocomplete

// CompletionSuggestion is a data-only completion entry with no styling
type CompletionSuggestion struct {
	// The text shown in the popup.
	Display string

	// An optional secondary text, e.g. the user id next to a display name.
	Description string

	// The ID of the provider that generated this suggestion.
	ProviderID string

	// The entity inserted when the suggestion is selected.
	Item Item
}
