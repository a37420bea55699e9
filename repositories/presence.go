//go:generate go run go.uber.org/mock/mockgen -source=presence.go -destination=../mocks/mock_presence_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"guard-lab/domain"
	"guard-lab/errors"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

type IPresenceRepository interface {
	Upsert(record PresenceRecord) error
	Find(user domain.UserID) (PresenceRecord, bool, error)
	Clear(user domain.UserID) error
}

// PresenceRecord exists iff the user is currently AFK.
// DeclaredSeconds is the advisory duration parsed from the declaration;
// the welcome-back notice reports wall-clock elapsed time instead.
type PresenceRecord struct {
	UserID          domain.UserID
	Reason          string
	DeclaredSeconds int64
	StartedAt       time.Time
}

type PresenceRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewPresenceRepository(db *badger.DB, log *slog.Logger) PresenceRepository {
	return PresenceRepository{db: db, log: log}
}

type presenceRecord struct {
	UserID          int64  `json:"user_id"`
	Reason          string `json:"reason,omitempty"`
	DeclaredSeconds int64  `json:"declared_duration_seconds"`
	StartedAt       int64  `json:"started_at"`
}

// Upsert writes or overwrites the AFK state for one user. Re-declaring
// AFK resets both start time and reason.
func (p PresenceRepository) Upsert(record PresenceRecord) error {
	stored := presenceRecord{
		UserID:          int64(record.UserID),
		Reason:          record.Reason,
		DeclaredSeconds: record.DeclaredSeconds,
		StartedAt:       record.StartedAt.UnixNano(),
	}
	data, err := json.Marshal(stored)
	if err != nil {
		return err
	}
	err = p.db.Update(func(txn *badger.Txn) error {
		return txn.Set(presenceKey(record.UserID), data)
	})
	if err != nil {
		return fmt.Errorf("%w: upsert presence %d: %v", errors.ErrStorageUnavailable, record.UserID, err)
	}
	return nil
}

func (p PresenceRepository) Find(user domain.UserID) (PresenceRecord, bool, error) {
	var stored presenceRecord
	found := false
	err := p.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(presenceKey(user))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &stored)
		})
	})
	if err != nil {
		return PresenceRecord{}, false, fmt.Errorf("%w: find presence %d: %v", errors.ErrStorageUnavailable, user, err)
	}
	if !found {
		return PresenceRecord{}, false, nil
	}
	return PresenceRecord{
		UserID:          domain.UserID(stored.UserID),
		Reason:          stored.Reason,
		DeclaredSeconds: stored.DeclaredSeconds,
		StartedAt:       time.Unix(0, stored.StartedAt).UTC(),
	}, true, nil
}

// Clear removes the AFK state. Clearing an absent record succeeds.
func (p PresenceRepository) Clear(user domain.UserID) error {
	err := p.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(presenceKey(user))
	})
	if err != nil {
		return fmt.Errorf("%w: clear presence %d: %v", errors.ErrStorageUnavailable, user, err)
	}
	return nil
}

const presencePrefix = "afk:"

func presenceKey(user domain.UserID) []byte {
	return []byte(fmt.Sprintf("%s%d", presencePrefix, user))
}
