package commands

import (
	"sort"
	"strings"
)

// CommandName is the slash-command word without the leading '/'.
type CommandName string

const (
	EmoteCommand       CommandName = "me"
	BanCommand         CommandName = "ban"
	UnbanCommand       CommandName = "unban"
	OpCommand          CommandName = "op"
	DeopCommand        CommandName = "deop"
	InviteCommand      CommandName = "invite"
	JoinCommand        CommandName = "join"
	PartCommand        CommandName = "part"
	TopicCommand       CommandName = "topic"
	KickCommand        CommandName = "remove"
	NickCommand        CommandName = "nick"
	MarkdownCommand    CommandName = "markdown"
	SpoilerCommand     CommandName = "spoiler"
	ShrugCommand       CommandName = "shrug"
	LennyCommand       CommandName = "lenny"
	PlainCommand       CommandName = "plain"
	WhoisCommand       CommandName = "whois"
	ClearScalarCommand CommandName = "clear_scalar_token"
)

// Command is a slash command the composer understands.
type Command struct {
	Name        CommandName
	Parameters  string
	Description string
	// Dev commands are hidden from completion unless developer mode is on.
	Dev bool
}

// Trigger returns the text typed to invoke the command, e.g. "/me".
func (c Command) Trigger() string {
	return "/" + string(c.Name)
}

// Registry holds all the available commands.
type Registry map[CommandName]Command

func NewCommandRegistry() Registry {
	list := []Command{
		{Name: EmoteCommand, Parameters: "<message>", Description: "Displays action"},
		{Name: BanCommand, Parameters: "<user-id> [reason]", Description: "Bans user with given id"},
		{Name: UnbanCommand, Parameters: "<user-id> [reason]", Description: "Unbans user with given id"},
		{Name: OpCommand, Parameters: "<user-id> [<power-level>]", Description: "Define the power level of a user"},
		{Name: DeopCommand, Parameters: "<user-id>", Description: "Deops user with given id"},
		{Name: InviteCommand, Parameters: "<user-id> [reason]", Description: "Invites user with given id to current room"},
		{Name: JoinCommand, Parameters: "<room-alias> [reason]", Description: "Joins room with given alias"},
		{Name: PartCommand, Parameters: "[<room-alias>] [reason]", Description: "Leave room"},
		{Name: TopicCommand, Parameters: "<topic>", Description: "Set the room topic"},
		{Name: KickCommand, Parameters: "<user-id> [reason]", Description: "Removes user with given id from this room"},
		{Name: NickCommand, Parameters: "<display-name>", Description: "Changes your display nickname"},
		{Name: MarkdownCommand, Parameters: "<on|off>", Description: "On/Off markdown"},
		{Name: SpoilerCommand, Parameters: "<message>", Description: "Sends the given message as a spoiler"},
		{Name: ShrugCommand, Parameters: "<message>", Description: "Prepends ¯\\_(ツ)_/¯ to a plain-text message"},
		{Name: LennyCommand, Parameters: "<message>", Description: "Prepends ( ͡° ͜ʖ ͡°) to a plain-text message"},
		{Name: PlainCommand, Parameters: "<message>", Description: "Sends a message as plain text, without interpreting it as markdown"},
		{Name: WhoisCommand, Parameters: "<user-id>", Description: "Displays information about a user"},
		{Name: ClearScalarCommand, Description: "To fix Matrix Apps management", Dev: true},
	}
	r := make(Registry, len(list))
	for _, c := range list {
		r[c.Name] = c
	}
	return r
}

// Sorted returns the commands ordered by name.
func (r Registry) Sorted() []Command {
	out := make([]Command, 0, len(r))
	for _, c := range r {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Parse splits "/name args" into a known command and its argument text.
func (r Registry) Parse(input string) (Command, string, bool) {
	if !strings.HasPrefix(input, "/") || strings.HasPrefix(input, "//") {
		return Command{}, "", false
	}
	word, args, _ := strings.Cut(input[1:], " ")
	c, ok := r[CommandName(word)]
	if !ok {
		return Command{}, "", false
	}
	return c, strings.TrimSpace(args), true
}
