package autocomplete

import (
	"fmt"
	"strings"
)

// Kind tags what a completion Item refers to.
type Kind int

const (
	KindMember Kind = iota
	KindRoom
	KindGroup
	KindCommand
	KindEmoji
)

func (k Kind) String() string {
	switch k {
	case KindMember:
		return "member"
	case KindRoom:
		return "room"
	case KindGroup:
		return "group"
	case KindCommand:
		return "command"
	case KindEmoji:
		return "emoji"
	default:
		return "unknown"
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	if k < KindMember || k > KindEmoji {
		return nil, fmt.Errorf("unknown completion kind %d", int(k))
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	for c := KindMember; c <= KindEmoji; c++ {
		if c.String() == string(b) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("unknown completion kind %q", b)
}

// Trigger returns the character that opens a completion session for k.
func (k Kind) Trigger() rune {
	switch k {
	case KindMember:
		return '@'
	case KindRoom:
		return '#'
	case KindGroup:
		return '+'
	case KindCommand:
		return '/'
	case KindEmoji:
		return ':'
	default:
		return 0
	}
}

// IsPill reports whether items of this kind are inserted as pills.
func (k Kind) IsPill() bool {
	return k == KindMember || k == KindRoom || k == KindGroup
}

// Item is the entity a user picks from the completion popup.
type Item struct {
	Kind Kind `json:"kind"`
	// ID is the user id, room id, group id, command name or emoji shortcode.
	ID string `json:"id"`
	// Alias is the canonical alias of a room, if any.
	Alias       string `json:"alias,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
	// Value is the inserted text for commands and emoji.
	Value string `json:"value,omitempty"`
}

// BestName is the text inserted for the item. Members use their display name
// and fall back to the user id; rooms use their alias; groups use their id.
func (i Item) BestName() string {
	switch i.Kind {
	case KindMember:
		if name := strings.TrimSpace(i.DisplayName); name != "" {
			return name
		}
		return i.ID
	case KindRoom:
		if i.Alias != "" {
			return i.Alias
		}
		return i.ID
	case KindGroup:
		return i.ID
	case KindCommand, KindEmoji:
		if i.Value != "" {
			return i.Value
		}
		return i.ID
	}
	return i.DisplayName
}

// LinkID is the identifier a pill links to.
func (i Item) LinkID() string {
	if i.Kind == KindRoom && i.Alias != "" {
		return i.Alias
	}
	return i.ID
}

// Member returns a member item.
func Member(userID, displayName string) Item {
	return Item{Kind: KindMember, ID: userID, DisplayName: displayName}
}

// Room returns a room item.
func Room(roomID, alias, name string) Item {
	return Item{Kind: KindRoom, ID: roomID, Alias: alias, DisplayName: name}
}

// Group returns a group item.
func Group(groupID, name string) Item {
	return Item{Kind: KindGroup, ID: groupID, DisplayName: name}
}

// Emoji returns an emoji item for a shortcode and its glyph.
func Emoji(shortcode, glyph string) Item {
	return Item{Kind: KindEmoji, ID: shortcode, Value: glyph}
}
