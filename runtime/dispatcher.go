// Package runtime routes inbound events to the moderation, presence,
// access, and broadcast components. It orchestrates the system without
// containing domain rules of its own.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"guard-lab/access"
	"guard-lab/broadcast"
	"guard-lab/contract"
	"guard-lab/domain"
	guarderrors "guard-lab/errors"
	"guard-lab/moderation"
	"guard-lab/observability"
	"guard-lab/presence"
	"guard-lab/repositories"
	"log/slog"
	"sync"
)

// Dispatcher consumes decoded events and fans each one out to the
// interested components on its own goroutine. No event ever blocks the
// dispatch of unrelated events, and no collaborator failure escapes a
// single event's handling.
type Dispatcher struct {
	log      *slog.Logger
	source   contract.EventSource
	registry repositories.IChatRepository
	tracker  *presence.Tracker
	gate     *moderation.Gate
	control  *access.Control
	engine   *broadcast.Engine
	sender   contract.Sender
	monitor  *observability.Monitor
	wg       sync.WaitGroup
}

func NewDispatcher(source contract.EventSource, registry repositories.IChatRepository,
	tracker *presence.Tracker, gate *moderation.Gate, control *access.Control,
	engine *broadcast.Engine, sender contract.Sender,
	monitor *observability.Monitor, log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		log:      log,
		source:   source,
		registry: registry,
		tracker:  tracker,
		gate:     gate,
		control:  control,
		engine:   engine,
		sender:   sender,
		monitor:  monitor,
	}
}

func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			d.wg.Wait()
			return nil
		case evt, ok := <-d.source.Events():
			if !ok {
				d.wg.Wait()
				return nil
			}
			d.wg.Add(1)
			go func() {
				defer d.wg.Done()
				d.Handle(ctx, evt)
			}()
		}
	}
}

// Handle processes one event end to end. Registration is unconditional
// and happens first for every event kind.
func (d *Dispatcher) Handle(ctx context.Context, evt domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("Event handler panic", "chat", evt.EventChat().ID, "panic", r)
		}
	}()
	d.monitor.IncrEvents()

	if err := d.registry.Observe(evt.EventChat()); err != nil {
		d.log.Error("Chat registration failed", "chat", evt.EventChat().ID, "error", err)
	}

	switch e := evt.(type) {
	case domain.Message:
		d.handleMessage(ctx, e)
	case domain.EditedMessage:
		moderated, err := d.gate.OnEdit(ctx, e)
		if err != nil {
			d.log.Error("Edit moderation failed", "chat", e.In.ID, "message", e.ID, "error", err)
			return
		}
		if moderated {
			d.monitor.IncrEditsModerated()
		}
	case domain.CallbackQuery:
		// Registered above; callbacks carry no moderated payload
		d.log.Debug("Callback observed", "chat", e.In.ID, "data", e.Data)
	}
}

func (d *Dispatcher) handleMessage(ctx context.Context, message domain.Message) {
	if IsCommandShaped(message.Text) {
		if cmd, ok := ParseCommand(message); ok {
			d.monitor.IncrCommands()
			d.handleCommand(ctx, cmd)
		}
		return
	}
	if !message.In.IsGroup() || message.Text == "" {
		return
	}

	// Clear-then-mention: the sender's own stale record is gone before
	// mentions on the same message are resolved
	notice, cleared, err := d.tracker.ClearOnActivity(message.Author)
	if err != nil {
		d.log.Error("Presence clear failed", "user", message.Author.ID, "error", err)
	}
	if cleared {
		d.monitor.IncrPresenceClears()
		d.send(ctx, message.In.ID, notice)
	}

	screened, err := d.gate.ScreenMessage(ctx, message)
	if err != nil {
		d.log.Error("Message screening failed", "chat", message.In.ID, "error", err)
	}
	if screened {
		// The original message is gone; mention notices would dangle
		d.monitor.IncrMessagesScreened()
		return
	}

	for _, mentionNotice := range d.tracker.MentionLookup(message) {
		d.send(ctx, message.In.ID, mentionNotice)
	}
}

func (d *Dispatcher) handleCommand(ctx context.Context, cmd domain.Command) {
	switch c := cmd.(type) {
	case domain.StartCommand:
		if !c.In.IsGroup() {
			d.send(ctx, c.In.ID, "Guard is alive! Use /afk in groups.")
		}
	case domain.SetAFKCommand:
		if !c.In.IsGroup() {
			return
		}
		notice, err := d.tracker.SetAFK(c.Requester, c.FreeText)
		if err != nil {
			d.log.Error("AFK declaration failed", "user", c.Requester.ID, "error", err)
			return
		}
		d.send(ctx, c.In.ID, notice)
	case domain.BroadcastCommand:
		report, err := d.engine.Run(ctx, c.Requester, c.Source)
		if err != nil {
			d.reject(ctx, c.In.ID, c.CommandName(), err)
			return
		}
		d.monitor.IncrBroadcasts()
		d.monitor.AddDeliveryFailures(report.Failed)
		d.send(ctx, c.In.ID, report.Summary())
	case domain.PromoteSudoCommand:
		target, err := d.control.GrantSudo(ctx, c.Requester, c.Reply, c.HandleArg)
		if err != nil {
			d.reject(ctx, c.In.ID, c.CommandName(), err)
			return
		}
		d.send(ctx, c.In.ID, fmt.Sprintf("%s now has elevated access.", target.Label()))
	case domain.DemoteSudoCommand:
		target, err := d.control.RevokeSudo(ctx, c.Requester, c.Reply, c.HandleArg)
		if err != nil {
			d.reject(ctx, c.In.ID, c.CommandName(), err)
			return
		}
		d.send(ctx, c.In.ID, fmt.Sprintf("%s no longer has elevated access.", target.Label()))
	case domain.GrantEditCommand:
		target, err := d.gate.Grant(ctx, c.Requester, c.In, c.Reply)
		if err != nil {
			d.reject(ctx, c.In.ID, c.CommandName(), err)
			return
		}
		d.send(ctx, c.In.ID, fmt.Sprintf("%s may edit messages in this chat.", target.Label()))
	case domain.RevokeEditCommand:
		target, err := d.gate.Revoke(ctx, c.Requester, c.In, c.Reply)
		if err != nil {
			d.reject(ctx, c.In.ID, c.CommandName(), err)
			return
		}
		d.send(ctx, c.In.ID, fmt.Sprintf("%s may no longer edit messages in this chat.", target.Label()))
	}
}

// reject answers a failed command with a user-facing line matching the
// error taxonomy. Unexpected failures get logged, not echoed.
func (d *Dispatcher) reject(ctx context.Context, chat domain.ChatID, command string, err error) {
	switch {
	case errors.Is(err, guarderrors.ErrPermissionDenied):
		d.send(ctx, chat, "You are not authorized to do that.")
	case errors.Is(err, guarderrors.ErrTargetUnresolved):
		d.send(ctx, chat, fmt.Sprintf("Usage: reply to a user's message with /%s, or pass their @handle.", command))
	case errors.Is(err, guarderrors.ErrNoSourceMessage):
		d.send(ctx, chat, "Usage: reply to the message you want to broadcast with /broadcast.")
	default:
		d.log.Error("Command failed", "command", command, "chat", chat, "error", err)
	}
}

func (d *Dispatcher) send(ctx context.Context, chat domain.ChatID, text string) {
	if err := d.sender.SendText(ctx, chat, text); err != nil {
		d.log.Warn("Notice delivery failed", "chat", chat, "error", err)
	}
}
