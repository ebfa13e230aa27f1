package autocomplete

import (
	"sort"
	"strings"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// EntityCompletionProvider completes members, rooms or groups from an item
// list that can be replaced while the composer is open.
type EntityCompletionProvider struct {
	id           string
	emptyMessage string
	targets      func(Item) []string
	describe     func(Item) string

	mu    sync.RWMutex
	items []Item
}

// NewMemberCompletionProvider matches members on display name and user id.
func NewMemberCompletionProvider(members []Item) *EntityCompletionProvider {
	return &EntityCompletionProvider{
		id:           "members",
		emptyMessage: "no matching members",
		targets: func(i Item) []string {
			return []string{i.DisplayName, strings.TrimPrefix(i.ID, "@")}
		},
		describe: func(i Item) string { return i.ID },
		items:    members,
	}
}

// NewRoomCompletionProvider matches rooms on alias and name.
func NewRoomCompletionProvider(rooms []Item) *EntityCompletionProvider {
	return &EntityCompletionProvider{
		id:           "rooms",
		emptyMessage: "no matching rooms",
		targets: func(i Item) []string {
			return []string{strings.TrimPrefix(i.Alias, "#"), i.DisplayName}
		},
		describe: func(i Item) string { return i.DisplayName },
		items:    rooms,
	}
}

// NewGroupCompletionProvider matches groups on id and name.
func NewGroupCompletionProvider(groups []Item) *EntityCompletionProvider {
	return &EntityCompletionProvider{
		id:           "groups",
		emptyMessage: "no matching groups",
		targets: func(i Item) []string {
			return []string{strings.TrimPrefix(i.ID, "+"), i.DisplayName}
		},
		describe: func(i Item) string { return i.DisplayName },
		items:    groups,
	}
}

func (p *EntityCompletionProvider) GetId() string {
	return p.id
}

func (p *EntityCompletionProvider) GetEmptyMessage() string {
	return p.emptyMessage
}

// SetItems replaces the completion candidates.
func (p *EntityCompletionProvider) SetItems(items []Item) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = items
}

// find returns the first item f accepts.
func (p *EntityCompletionProvider) find(f func(Item) bool) (Item, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, item := range p.items {
		if f(item) {
			return item, true
		}
	}
	return Item{}, false
}

func (p *EntityCompletionProvider) suggestion(item Item) CompletionSuggestion {
	return CompletionSuggestion{
		Display:     item.BestName(),
		Description: p.describe(item),
		ProviderID:  p.id,
		Item:        item,
	}
}

func (p *EntityCompletionProvider) GetChildEntries(query string) ([]CompletionSuggestion, error) {
	p.mu.RLock()
	items := make([]Item, len(p.items))
	copy(items, p.items)
	p.mu.RUnlock()

	query = strings.TrimSpace(query)
	if query == "" {
		sort.SliceStable(items, func(i, j int) bool {
			return strings.ToLower(items[i].BestName()) < strings.ToLower(items[j].BestName())
		})
		result := make([]CompletionSuggestion, 0, len(items))
		for _, item := range items {
			result = append(result, p.suggestion(item))
		}
		return result, nil
	}

	// Every searchable string points back at its item
	var targets []string
	owners := make(map[string][]int)
	for idx, item := range items {
		for _, target := range p.targets(item) {
			if target == "" {
				continue
			}
			if _, seen := owners[target]; !seen {
				targets = append(targets, target)
			}
			owners[target] = append(owners[target], idx)
		}
	}

	matches := fuzzy.RankFindFold(query, targets)
	sort.Sort(matches)

	result := []CompletionSuggestion{}
	seen := make(map[int]bool)
	for _, match := range matches {
		for _, idx := range owners[match.Target] {
			if seen[idx] {
				continue
			}
			seen[idx] = true
			result = append(result, p.suggestion(items[idx]))
		}
	}
	return result, nil
}
