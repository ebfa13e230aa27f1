package autocomplete

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/riotx/riotx/internal/commands"
)

type CommandCompletionProvider struct {
	registry  commands.Registry
	developer bool
}

func NewCommandCompletionProvider(registry commands.Registry, developer bool) CompletionProvider {
	return &CommandCompletionProvider{registry: registry, developer: developer}
}

func (c *CommandCompletionProvider) GetId() string {
	return "commands"
}

func (c *CommandCompletionProvider) GetEmptyMessage() string {
	return "no matching commands"
}

func (c *CommandCompletionProvider) getCommandCompletionItem(cmd commands.Command) CompletionSuggestion {
	display := cmd.Trigger()
	if cmd.Parameters != "" {
		display += " " + cmd.Parameters
	}
	return CompletionSuggestion{
		Display:     display,
		Description: cmd.Description,
		ProviderID:  c.GetId(),
		Item:        Item{Kind: KindCommand, ID: string(cmd.Name), Value: cmd.Trigger()},
	}
}

func (c *CommandCompletionProvider) GetChildEntries(query string) ([]CompletionSuggestion, error) {
	var visible []commands.Command
	for _, cmd := range c.registry.Sorted() {
		if cmd.Dev && !c.developer {
			continue
		}
		visible = append(visible, cmd)
	}

	query = strings.TrimPrefix(strings.TrimSpace(query), "/")
	if query == "" {
		items := make([]CompletionSuggestion, 0, len(visible))
		for _, cmd := range visible {
			items = append(items, c.getCommandCompletionItem(cmd))
		}
		return items, nil
	}

	names := make([]string, 0, len(visible))
	byName := make(map[string]commands.Command, len(visible))
	for _, cmd := range visible {
		names = append(names, string(cmd.Name))
		byName[string(cmd.Name)] = cmd
	}

	// Prefix matches first, then the rest by fuzzy distance
	matches := fuzzy.RankFindFold(query, names)
	sort.SliceStable(matches, func(i, j int) bool {
		pi := strings.HasPrefix(matches[i].Target, strings.ToLower(query))
		pj := strings.HasPrefix(matches[j].Target, strings.ToLower(query))
		if pi != pj {
			return pi
		}
		return matches[i].Distance < matches[j].Distance
	})

	items := make([]CompletionSuggestion, 0, len(matches))
	for _, match := range matches {
		items = append(items, c.getCommandCompletionItem(byName[match.Target]))
	}
	return items, nil
}
