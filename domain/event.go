package domain

// Event is the closed set of inbound variants the transport decodes.
// Each variant carries only the fields its branch guarantees; optional
// platform payload never leaks past the transport boundary.
type Event interface {
	EventChat() Chat
	EventSender() User
}

type MentionKind string

const (
	MentionDirect MentionKind = "direct"
	MentionTagged MentionKind = "tagged"
)

// Mention references one user named inside a message, either by a
// direct @handle or by an explicit user-tagged entity.
type Mention struct {
	Target User
	Kind   MentionKind
}

// MessageRef locates one message on the platform, enough for the send
// collaborator to delete, forward, or copy it.
type MessageRef struct {
	ChatID    ChatID
	MessageID int64
}

// ReplyRef is a reply-reference: the replied-to message and its author.
// The author is what command target resolution consumes; Forwarded
// mirrors the replied-to message's forwarding provenance.
type ReplyRef struct {
	Ref       MessageRef
	Author    User
	Forwarded bool
}

type Message struct {
	ID       int64
	In       Chat
	Author   User
	Text     string
	Caption  string
	Mentions []Mention
	ReplyTo  *ReplyRef
	// Forwarded is true when the message carries forwarding provenance,
	// i.e. it was itself forwarded from elsewhere with original-author
	// attribution preserved.
	Forwarded bool
}

func (m Message) EventChat() Chat   { return m.In }
func (m Message) EventSender() User { return m.Author }

func (m Message) Ref() MessageRef {
	return MessageRef{ChatID: m.In.ID, MessageID: m.ID}
}

// Body returns the textual payload, preferring text over caption.
func (m Message) Body() string {
	if m.Text != "" {
		return m.Text
	}
	return m.Caption
}

type EditedMessage struct {
	ID      int64
	In      Chat
	Author  User
	Text    string
	Caption string
}

func (e EditedMessage) EventChat() Chat   { return e.In }
func (e EditedMessage) EventSender() User { return e.Author }

func (e EditedMessage) Ref() MessageRef {
	return MessageRef{ChatID: e.In.ID, MessageID: e.ID}
}

// HasTextualPayload reports whether the edit changed text or caption.
// Attachment-only edits are not moderated.
func (e EditedMessage) HasTextualPayload() bool {
	return e.Text != "" || e.Caption != ""
}

type CallbackQuery struct {
	ID     string
	In     Chat
	Author User
	Data   string
}

func (c CallbackQuery) EventChat() Chat   { return c.In }
func (c CallbackQuery) EventSender() User { return c.Author }
