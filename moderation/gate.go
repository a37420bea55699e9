// Package moderation guards group chats: it deletes unauthorized
// edits, owns the per-chat authorization allowlist, and screens new
// messages against a banned-word dictionary.
package moderation

import (
	"context"
	"fmt"
	"guard-lab/access"
	"guard-lab/contract"
	"guard-lab/domain"
	"guard-lab/errors"
	"guard-lab/repositories"
	"log/slog"
)

type Gate struct {
	allowlist repositories.IAuthorizedRepository
	access    *access.Control
	admins    contract.ChatAdminChecker
	sender    contract.Sender
	screener  *Screener
	log       *slog.Logger
}

// NewGate wires the edit-moderation gate. screener may be nil, which
// disables banned-word screening entirely.
func NewGate(allowlist repositories.IAuthorizedRepository, control *access.Control,
	admins contract.ChatAdminChecker, sender contract.Sender,
	screener *Screener, log *slog.Logger) *Gate {
	return &Gate{
		allowlist: allowlist,
		access:    control,
		admins:    admins,
		sender:    sender,
		screener:  screener,
		log:       log,
	}
}

// OnEdit moderates an edited message: group chats only, and only when
// the edit carries a textual payload (attachment-only edits pass).
// Allowlisted (sender, chat) pairs are exempt. Delete and notice are
// both best effort: a platform failure is logged and never escalated.
// Returns whether the edit was actually moderated.
func (g *Gate) OnEdit(ctx context.Context, edit domain.EditedMessage) (bool, error) {
	if !edit.In.IsGroup() || !edit.HasTextualPayload() {
		return false, nil
	}
	exempt, err := g.allowlist.Exists(edit.Author.ID, edit.In.ID)
	if err != nil {
		return false, err
	}
	if exempt {
		return false, nil
	}
	if err := g.sender.DeleteMessage(ctx, edit.Ref()); err != nil {
		g.log.Warn("Edited message delete failed", "chat", edit.In.ID, "message", edit.ID, "error", err)
	}
	notice := fmt.Sprintf("%s, edited messages are removed in this chat.", edit.Author.Label())
	if err := g.sender.SendText(ctx, edit.In.ID, notice); err != nil {
		g.log.Warn("Moderation notice failed", "chat", edit.In.ID, "error", err)
	}
	return true, nil
}

// ScreenMessage checks a plain-text group message against the banned
// word dictionary. On a hit the original is best-effort deleted and a
// censored rendition posted in its place.
func (g *Gate) ScreenMessage(ctx context.Context, message domain.Message) (bool, error) {
	if g.screener == nil || !message.In.IsGroup() || message.Text == "" {
		return false, nil
	}
	censored, hit := g.screener.Screen(message.Text)
	if !hit {
		return false, nil
	}
	if err := g.sender.DeleteMessage(ctx, message.Ref()); err != nil {
		g.log.Warn("Screened message delete failed", "chat", message.In.ID, "message", message.ID, "error", err)
	}
	rendition := fmt.Sprintf("%s said: %s", message.Author.Label(), censored)
	if err := g.sender.SendText(ctx, message.In.ID, rendition); err != nil {
		g.log.Warn("Censored rendition failed", "chat", message.In.ID, "error", err)
	}
	return true, nil
}

// Grant exempts the reply-referenced user from edit moderation in this
// chat. Allowed for the bot owner, sudoers, and the chat's own
// administrative owner. Target resolution is reply-only.
func (g *Gate) Grant(ctx context.Context, requester domain.User, chat domain.Chat,
	reply *domain.ReplyRef) (domain.User, error) {
	target, err := g.authorizeMutation(ctx, requester, chat, reply)
	if err != nil {
		return domain.User{}, err
	}
	if err := g.allowlist.Grant(target.ID, chat.ID); err != nil {
		return domain.User{}, err
	}
	g.log.Info("Edit authorization granted", "target", target.ID, "chat", chat.ID, "by", requester.ID)
	return target, nil
}

// Revoke removes the exemption. Same role requirements as Grant;
// revoking an absent entry succeeds.
func (g *Gate) Revoke(ctx context.Context, requester domain.User, chat domain.Chat,
	reply *domain.ReplyRef) (domain.User, error) {
	target, err := g.authorizeMutation(ctx, requester, chat, reply)
	if err != nil {
		return domain.User{}, err
	}
	if err := g.allowlist.Revoke(target.ID, chat.ID); err != nil {
		return domain.User{}, err
	}
	g.log.Info("Edit authorization revoked", "target", target.ID, "chat", chat.ID, "by", requester.ID)
	return target, nil
}

func (g *Gate) authorizeMutation(ctx context.Context, requester domain.User,
	chat domain.Chat, reply *domain.ReplyRef) (domain.User, error) {
	elevated, err := g.access.HasElevated(requester.ID)
	if err != nil {
		return domain.User{}, err
	}
	if !elevated {
		chatAdmin, err := g.admins.IsChatAdmin(ctx, chat.ID, requester.ID)
		if err != nil {
			return domain.User{}, err
		}
		if !chatAdmin {
			return domain.User{}, fmt.Errorf("%w: allowlist mutation in chat %d", errors.ErrPermissionDenied, chat.ID)
		}
	}
	if reply == nil {
		return domain.User{}, errors.ErrTargetUnresolved
	}
	return reply.Author, nil
}
