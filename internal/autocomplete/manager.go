package autocomplete

import (
	"fmt"

	"github.com/riotx/riotx/internal/commands"
	"github.com/riotx/riotx/internal/text"
)

// Query is the result of looking for a completion at the cursor.
type Query struct {
	Session      Session
	Provider     CompletionProvider
	Suggestions  []CompletionSuggestion
	EmptyMessage string
}

type registration struct {
	policy   Policy
	provider CompletionProvider
}

// Autocompleter ties trigger policies, providers and the inserter together
// for one composer.
type Autocompleter struct {
	commandPolicy *CommandPolicy
	commands      CompletionProvider
	members       *EntityCompletionProvider
	rooms         *EntityCompletionProvider
	groups        *EntityCompletionProvider
	registrations []registration
	inserter      *Inserter
}

// Options configures the completion sources of an Autocompleter.
type Options struct {
	Members   []Item
	Rooms     []Item
	Groups    []Item
	Emoji     map[string]string
	Commands  commands.Registry
	Developer bool
}

func New(opts Options) *Autocompleter {
	registry := opts.Commands
	if registry == nil {
		registry = commands.NewCommandRegistry()
	}
	a := &Autocompleter{
		commandPolicy: &CommandPolicy{Enabled: true},
		commands:      NewCommandCompletionProvider(registry, opts.Developer),
		members:       NewMemberCompletionProvider(opts.Members),
		rooms:         NewRoomCompletionProvider(opts.Rooms),
		groups:        NewGroupCompletionProvider(opts.Groups),
		inserter:      NewInserter(),
	}
	a.registrations = []registration{
		{policy: CharPolicy{Trigger: KindMember.Trigger(), NeedsSpace: true}, provider: a.members},
		{policy: CharPolicy{Trigger: KindRoom.Trigger(), NeedsSpace: true}, provider: a.rooms},
		{policy: CharPolicy{Trigger: KindGroup.Trigger(), NeedsSpace: true}, provider: a.groups},
		// ids such as "@bob:example.org" contain ':', so emoji is checked last
		{policy: CharPolicy{Trigger: KindEmoji.Trigger(), MinQuery: 2}, provider: NewEmojiCompletionProvider(opts.Emoji)},
	}
	return a
}

// EnterSpecialMode disables command completion, e.g. while editing a message.
func (a *Autocompleter) EnterSpecialMode() {
	a.commandPolicy.Enabled = false
}

// ExitSpecialMode re-enables command completion.
func (a *Autocompleter) ExitSpecialMode() {
	a.commandPolicy.Enabled = true
}

// SetMembers replaces the member candidates.
func (a *Autocompleter) SetMembers(members []Item) {
	a.members.SetItems(members)
}

// SetRooms replaces the room candidates.
func (a *Autocompleter) SetRooms(rooms []Item) {
	a.rooms.SetItems(rooms)
}

// SetGroups replaces the group candidates.
func (a *Autocompleter) SetGroups(groups []Item) {
	a.groups.SetItems(groups)
}

// Inserter exposes the underlying inserter.
func (a *Autocompleter) Inserter() *Inserter {
	return a.inserter
}

func (a *Autocompleter) detect(buf *text.Buffer, cursor int) (Session, CompletionProvider, bool) {
	if s, ok := a.commandPolicy.Detect(buf, cursor); ok {
		return s, a.commands, true
	}
	for _, r := range a.registrations {
		if s, ok := r.policy.Detect(buf, cursor); ok {
			return s, r.provider, true
		}
	}
	return Session{}, nil, false
}

// Query finds the active completion session at cursor and its suggestions.
// It reports false when no session is active.
func (a *Autocompleter) Query(buf *text.Buffer, cursor int) (Query, bool, error) {
	session, provider, ok := a.detect(buf, cursor)
	if !ok {
		return Query{}, false, nil
	}
	suggestions, err := provider.GetChildEntries(session.Query)
	if err != nil {
		return Query{}, false, fmt.Errorf("%s completion: %w", provider.GetId(), err)
	}
	return Query{
		Session:      session,
		Provider:     provider,
		Suggestions:  suggestions,
		EmptyMessage: provider.GetEmptyMessage(),
	}, true, nil
}

// Select applies suggestion to buf and returns the new cursor. With an active
// session the session token is replaced; otherwise a pill is inserted at the
// cursor.
func (a *Autocompleter) Select(buf *text.Buffer, cursor int, suggestion CompletionSuggestion) (int, error) {
	cursor = min(max(cursor, 0), buf.Len())
	item := suggestion.Item

	session, _, ok := a.detect(buf, cursor)
	if !ok {
		if !item.Kind.IsPill() {
			return cursor, ErrNoSession
		}
		return a.inserter.InsertAtCursor(buf, cursor, item)
	}
	if session.Trigger != item.Kind.Trigger() {
		return cursor, fmt.Errorf("%w: %s selected in a %q session", ErrNoSession, item.Kind, session.Trigger)
	}
	return a.inserter.InsertAt(buf, session.Trigger, session.Start, item)
}
