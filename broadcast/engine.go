// Package broadcast replicates one message to every registered chat
// with per-recipient success/failure accounting.
package broadcast

import (
	"context"
	"fmt"
	"guard-lab/access"
	"guard-lab/contract"
	"guard-lab/domain"
	"guard-lab/errors"
	"guard-lab/repositories"
	"log/slog"

	"github.com/google/uuid"
)

// Report tallies one fan-out run. The invariant
// SuccessGroups+SuccessUsers+Failed == len(snapshot) always holds.
type Report struct {
	SuccessGroups int
	SuccessUsers  int
	Failed        int
}

func (r Report) Summary() string {
	return fmt.Sprintf("Broadcast result: %d groups, %d users, %d failed",
		r.SuccessGroups, r.SuccessUsers, r.Failed)
}

type Engine struct {
	chats   repositories.IChatRepository
	blocked repositories.IBlockedRepository
	access  *access.Control
	sender  contract.Sender
	log     *slog.Logger
}

func NewEngine(chats repositories.IChatRepository, blocked repositories.IBlockedRepository,
	control *access.Control, sender contract.Sender, log *slog.Logger) *Engine {
	return &Engine{chats: chats, blocked: blocked, access: control, sender: sender, log: log}
}

// Run fans the source message out to a snapshot of the registry taken
// at call time. Each delivery is attempted independently and in order;
// a failure marks the chat blocked and moves on, never aborting the
// loop. The run is not cancellable once started and concurrent runs
// operate on their own snapshots and counters.
func (e *Engine) Run(ctx context.Context, requester domain.User, source *domain.ReplyRef) (Report, error) {
	elevated, err := e.access.HasElevated(requester.ID)
	if err != nil {
		return Report{}, err
	}
	if !elevated {
		return Report{}, fmt.Errorf("%w: broadcast requires elevated access", errors.ErrPermissionDenied)
	}
	if source == nil {
		return Report{}, errors.ErrNoSourceMessage
	}

	snapshot, err := e.chats.Snapshot()
	if err != nil {
		return Report{}, err
	}

	runID := uuid.NewString()
	e.log.Info("Broadcast started", "run", runID, "recipients", len(snapshot), "by", requester.ID)

	var report Report
	for _, chat := range snapshot {
		if err := e.deliver(ctx, source, chat.ID); err != nil {
			report.Failed++
			e.log.Warn("Broadcast delivery failed", "run", runID, "chat", chat.ID, "error", err)
			if markErr := e.blocked.Mark(chat.ID); markErr != nil {
				e.log.Warn("Blocked mark failed", "run", runID, "chat", chat.ID, "error", markErr)
			}
			continue
		}
		if chat.IsGroup() {
			report.SuccessGroups++
		} else {
			report.SuccessUsers++
		}
	}

	e.log.Info("Broadcast finished", "run", runID,
		"groups", report.SuccessGroups, "users", report.SuccessUsers, "failed", report.Failed)
	return report, nil
}

// deliver forwards when the source carries forwarding provenance,
// preserving original-author attribution, and copies otherwise.
func (e *Engine) deliver(ctx context.Context, source *domain.ReplyRef, dest domain.ChatID) error {
	if source.Forwarded {
		return e.sender.ForwardMessage(ctx, source.Ref, dest)
	}
	return e.sender.CopyMessage(ctx, source.Ref, dest)
}
