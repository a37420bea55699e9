// Package transport is the boundary to the chat platform: an NDJSON
// event-stream decoder on the inbound side and an HTTP JSON client for
// the send collaborator on the outbound side. Platform-specific
// payloads are decoded here, once, into the closed event variants;
// nothing loosely typed crosses into the core.
package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"guard-lab/domain"
	"guard-lab/errors"
	"io"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

// StreamSource decodes one JSON event per line from a reader, as
// delivered by a webhook sidecar or a replay file. Lines that fail
// decoding or validation are logged and skipped; a malformed event
// never stops the stream.
type StreamSource struct {
	log      *slog.Logger
	reader   io.Reader
	validate *validator.Validate
	events   chan domain.Event
}

func NewStreamSource(reader io.Reader, bufferSize int, log *slog.Logger) *StreamSource {
	return &StreamSource{
		log:      log,
		reader:   reader,
		validate: validator.New(),
		events:   make(chan domain.Event, bufferSize),
	}
}

func (s *StreamSource) Events() <-chan domain.Event {
	return s.events
}

func (s *StreamSource) Run(ctx context.Context) error {
	defer close(s.events)

	scanner := bufio.NewScanner(s.reader)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		evt, err := s.Decode(line)
		if err != nil {
			s.log.Warn("Inbound event dropped", "error", err)
			continue
		}
		select {
		case s.events <- evt:
		case <-ctx.Done():
			return nil
		}
	}
	return scanner.Err()
}

type wireEvent struct {
	Kind       string        `json:"kind" validate:"required,oneof=message edited_message callback_query"`
	MessageID  int64         `json:"message_id"`
	Chat       wireChat      `json:"chat" validate:"required"`
	Sender     wireUser      `json:"sender" validate:"required"`
	Text       string        `json:"text"`
	Caption    string        `json:"caption"`
	Mentions   []wireMention `json:"mentions"`
	ReplyTo    *wireReply    `json:"reply_to"`
	Forwarded  bool          `json:"forwarded"`
	CallbackID string        `json:"callback_id"`
	Data       string        `json:"data"`
}

type wireChat struct {
	ID    int64  `json:"id" validate:"required"`
	Kind  string `json:"kind" validate:"required,oneof=private group supergroup channel"`
	Title string `json:"title"`
}

type wireUser struct {
	ID          int64  `json:"id" validate:"required"`
	DisplayName string `json:"display_name"`
	Handle      string `json:"handle"`
}

type wireMention struct {
	Target wireUser `json:"target"`
	Kind   string   `json:"kind" validate:"oneof=direct tagged"`
}

type wireReply struct {
	ChatID    int64    `json:"chat_id"`
	MessageID int64    `json:"message_id"`
	Author    wireUser `json:"author"`
	Forwarded bool     `json:"forwarded"`
}

// Decode turns one wire line into its closed variant. Exported for the
// webhook sidecar tests; the stream loop is the only caller in here.
func (s *StreamSource) Decode(line []byte) (domain.Event, error) {
	var wire wireEvent
	if err := json.Unmarshal(line, &wire); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	if err := s.validate.Struct(wire); err != nil {
		return nil, fmt.Errorf("invalid event: %w", err)
	}

	chat := toChat(wire.Chat)
	sender := toUser(wire.Sender)

	switch wire.Kind {
	case "message":
		return domain.Message{
			ID:        wire.MessageID,
			In:        chat,
			Author:    sender,
			Text:      wire.Text,
			Caption:   wire.Caption,
			Mentions:  resolveMentions(wire.Mentions),
			ReplyTo:   toReply(wire.ReplyTo),
			Forwarded: wire.Forwarded,
		}, nil
	case "edited_message":
		return domain.EditedMessage{
			ID:      wire.MessageID,
			In:      chat,
			Author:  sender,
			Text:    wire.Text,
			Caption: wire.Caption,
		}, nil
	case "callback_query":
		return domain.CallbackQuery{
			ID:     wire.CallbackID,
			In:     chat,
			Author: sender,
			Data:   wire.Data,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", errors.ErrUnknownEventKind, wire.Kind)
	}
}

// resolveMentions folds every platform mention representation into the
// single shape the presence tracker consumes.
func resolveMentions(mentions []wireMention) []domain.Mention {
	return lo.Map(mentions, func(m wireMention, _ int) domain.Mention {
		kind := domain.MentionDirect
		if m.Kind == "tagged" {
			kind = domain.MentionTagged
		}
		return domain.Mention{Target: toUser(m.Target), Kind: kind}
	})
}

func toChat(c wireChat) domain.Chat {
	// Anything multi-member or broadcast-capable counts as a group
	kind := domain.ChatGroup
	if c.Kind == "private" {
		kind = domain.ChatPrivate
	}
	return domain.Chat{ID: domain.ChatID(c.ID), Kind: kind, Title: c.Title}
}

func toUser(u wireUser) domain.User {
	return domain.User{ID: domain.UserID(u.ID), DisplayName: u.DisplayName, Handle: u.Handle}
}

func toReply(r *wireReply) *domain.ReplyRef {
	if r == nil {
		return nil
	}
	return &domain.ReplyRef{
		Ref:       domain.MessageRef{ChatID: domain.ChatID(r.ChatID), MessageID: r.MessageID},
		Author:    toUser(r.Author),
		Forwarded: r.Forwarded,
	}
}
