// Package presence tracks per-user AFK state: declaration, automatic
// clearing on activity, and mention lookup notices.
package presence

import (
	"fmt"
	"guard-lab/domain"
	"guard-lab/repositories"
	"log/slog"
	"time"
)

// Tracker owns the Present/AFK state machine for every user. Absence
// of a record means Present; the only transitions are SetAFK
// (Present -> AFK, also re-entrant) and ClearOnActivity (AFK -> Present).
type Tracker struct {
	records repositories.IPresenceRepository
	clock   func() time.Time
	log     *slog.Logger
}

func NewTracker(records repositories.IPresenceRepository, clock func() time.Time, log *slog.Logger) *Tracker {
	return &Tracker{records: records, clock: clock, log: log}
}

// SetAFK parses the declaration and upserts the presence record with
// the current time. Returns the confirmation notice for the caller to
// send. The declared duration is advisory only: nothing ever
// auto-expires a record.
func (t *Tracker) SetAFK(user domain.User, freeText string) (string, error) {
	declared, reason := ParseDeclaration(freeText)
	record := repositories.PresenceRecord{
		UserID:          user.ID,
		Reason:          reason,
		DeclaredSeconds: declared,
		StartedAt:       t.clock().UTC(),
	}
	if err := t.records.Upsert(record); err != nil {
		return "", err
	}
	t.log.Debug("AFK set", "user", user.ID, "declared_seconds", declared)
	notice := fmt.Sprintf("%s is now AFK!", user.Label())
	if reason != "" {
		notice += fmt.Sprintf(" Reason: %s", reason)
	}
	return notice, nil
}

// ClearOnActivity deletes the sender's record, if any, and returns the
// welcome-back notice built from wall-clock elapsed time, never from
// the declared duration. Runs before mention resolution on the same
// message, so a sender's stale record is gone before their own
// mentions are looked up.
func (t *Tracker) ClearOnActivity(user domain.User) (string, bool, error) {
	record, found, err := t.records.Find(user.ID)
	if err != nil {
		return "", false, err
	}
	if !found {
		return "", false, nil
	}
	elapsed := int64(t.clock().Sub(record.StartedAt).Seconds())
	if err := t.records.Clear(user.ID); err != nil {
		return "", false, err
	}
	t.log.Debug("AFK cleared", "user", user.ID, "elapsed_seconds", elapsed)
	return fmt.Sprintf("%s is back online! Away for %s.", user.Label(), FormatDuration(elapsed)), true, nil
}

// MentionLookup produces one notice per mentioned user holding a
// presence record. Group chats only; every mention is handled
// independently, and a lookup failure for one mention never hides the
// others.
func (t *Tracker) MentionLookup(message domain.Message) []string {
	if !message.In.IsGroup() {
		return nil
	}
	var notices []string
	for _, mention := range message.Mentions {
		record, found, err := t.records.Find(mention.Target.ID)
		if err != nil {
			t.log.Warn("Presence lookup failed", "user", mention.Target.ID, "error", err)
			continue
		}
		if !found {
			continue
		}
		notice := fmt.Sprintf("%s is AFK!", mention.Target.Label())
		if record.DeclaredSeconds > 0 {
			notice += fmt.Sprintf(" Expected back in %s.", FormatDuration(record.DeclaredSeconds))
		}
		if record.Reason != "" {
			notice += fmt.Sprintf(" Reason: %s", record.Reason)
		}
		notices = append(notices, notice)
	}
	return notices
}
