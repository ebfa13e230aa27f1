package autocomplete

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

var defaultEmoji = map[string]string{
	"+1":               "👍",
	"-1":               "👎",
	"angry":            "😠",
	"blush":            "😊",
	"broken_heart":     "💔",
	"clap":             "👏",
	"confused":         "😕",
	"cry":              "😢",
	"eyes":             "👀",
	"fire":             "🔥",
	"grin":             "😁",
	"grinning":         "😀",
	"heart":            "❤️",
	"heart_eyes":       "😍",
	"joy":              "😂",
	"kissing_heart":    "😘",
	"laughing":         "😆",
	"ok_hand":          "👌",
	"party_popper":     "🎉",
	"pensive":          "😔",
	"point_up":         "☝️",
	"pray":             "🙏",
	"rocket":           "🚀",
	"rofl":             "🤣",
	"scream":           "😱",
	"see_no_evil":      "🙈",
	"shrug":            "🤷",
	"sleeping":         "😴",
	"slightly_smiling": "🙂",
	"smile":            "😄",
	"smiley":           "😃",
	"smirk":            "😏",
	"sob":              "😭",
	"sparkles":         "✨",
	"star":             "⭐",
	"sunglasses":       "😎",
	"sweat_smile":      "😅",
	"tada":             "🎉",
	"thinking":         "🤔",
	"thumbsdown":       "👎",
	"thumbsup":         "👍",
	"tired_face":       "😫",
	"unamused":         "😒",
	"upside_down":      "🙃",
	"wave":             "👋",
	"white_check_mark": "✅",
	"wink":             "😉",
	"x":                "❌",
	"yum":              "😋",
	"zzz":              "💤",
}

// EmojiCompletionProvider completes ':shortcode' to an emoji glyph.
type EmojiCompletionProvider struct {
	table      map[string]string
	shortcodes []string
}

// NewEmojiCompletionProvider uses the built-in shortcode table merged with extra.
func NewEmojiCompletionProvider(extra map[string]string) *EmojiCompletionProvider {
	table := make(map[string]string, len(defaultEmoji)+len(extra))
	for k, v := range defaultEmoji {
		table[k] = v
	}
	for k, v := range extra {
		table[k] = v
	}
	shortcodes := make([]string, 0, len(table))
	for k := range table {
		shortcodes = append(shortcodes, k)
	}
	sort.Strings(shortcodes)
	return &EmojiCompletionProvider{table: table, shortcodes: shortcodes}
}

func (p *EmojiCompletionProvider) GetId() string {
	return "emoji"
}

func (p *EmojiCompletionProvider) GetEmptyMessage() string {
	return "no matching emoji"
}

func (p *EmojiCompletionProvider) suggestion(shortcode string) CompletionSuggestion {
	glyph := p.table[shortcode]
	return CompletionSuggestion{
		Display:     glyph,
		Description: ":" + shortcode + ":",
		ProviderID:  p.GetId(),
		Item:        Emoji(shortcode, glyph),
	}
}

func (p *EmojiCompletionProvider) GetChildEntries(query string) ([]CompletionSuggestion, error) {
	query = strings.TrimSuffix(strings.TrimSpace(query), ":")
	if query == "" {
		return []CompletionSuggestion{}, nil
	}

	if _, exact := p.table[query]; exact {
		items := []CompletionSuggestion{p.suggestion(query)}
		for _, shortcode := range p.shortcodes {
			if shortcode != query && strings.HasPrefix(shortcode, query) {
				items = append(items, p.suggestion(shortcode))
			}
		}
		return items, nil
	}

	matches := fuzzy.RankFindFold(query, p.shortcodes)
	sort.Sort(matches)
	items := make([]CompletionSuggestion, 0, len(matches))
	for _, match := range matches {
		items = append(items, p.suggestion(match.Target))
	}
	return items, nil
}
