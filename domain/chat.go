// Package domain contains core concepts of the moderation layer.
// No runtime, transport, or storage logic should be added here.
package domain

type ChatID int64

type ChatKind string

const (
	ChatPrivate ChatKind = "private"
	ChatGroup   ChatKind = "group"
)

// Chat identifies one conversation the platform delivers events from.
// Kind is decided once, on the first observed event, and never changes.
type Chat struct {
	ID    ChatID
	Kind  ChatKind
	Title string
}

func (c Chat) IsGroup() bool {
	return c.Kind == ChatGroup
}
