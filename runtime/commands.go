package runtime

import (
	"guard-lab/domain"
	"strings"
)

// ParseCommand extracts a slash command from a message. A message
// starting with "/" that matches no known command returns (nil, false)
// and is left alone entirely: it still does not qualify as plain-text
// activity for presence clearing.
func ParseCommand(message domain.Message) (domain.Command, bool) {
	text := strings.TrimSpace(message.Text)
	if !strings.HasPrefix(text, "/") {
		return nil, false
	}
	fields := strings.Fields(text)
	word := strings.TrimPrefix(fields[0], "/")
	// "/afk@SomeBot" addresses a specific bot; the suffix is dropped
	word = strings.ToLower(strings.SplitN(word, "@", 2)[0])
	rest := strings.TrimSpace(strings.TrimPrefix(text, fields[0]))

	firstArg := ""
	if len(fields) > 1 {
		firstArg = fields[1]
	}

	switch word {
	case "start":
		return domain.StartCommand{Requester: message.Author, In: message.In}, true
	case "afk", "brb":
		return domain.SetAFKCommand{Requester: message.Author, In: message.In, FreeText: rest}, true
	case "broadcast":
		return domain.BroadcastCommand{Requester: message.Author, In: message.In, Source: message.ReplyTo}, true
	case "promote":
		return domain.PromoteSudoCommand{Requester: message.Author, In: message.In,
			Reply: message.ReplyTo, HandleArg: firstArg}, true
	case "demote":
		return domain.DemoteSudoCommand{Requester: message.Author, In: message.In,
			Reply: message.ReplyTo, HandleArg: firstArg}, true
	case "auth":
		return domain.GrantEditCommand{Requester: message.Author, In: message.In, Reply: message.ReplyTo}, true
	case "unauth":
		return domain.RevokeEditCommand{Requester: message.Author, In: message.In, Reply: message.ReplyTo}, true
	default:
		return nil, false
	}
}

// IsCommandShaped reports whether the text looks like a slash command,
// known or not. Command-shaped messages never count as qualifying
// activity for presence clearing.
func IsCommandShaped(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), "/")
}
