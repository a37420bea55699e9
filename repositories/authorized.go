//go:generate go run go.uber.org/mock/mockgen -source=authorized.go -destination=../mocks/mock_authorized_repository.go -package=mocks
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

type IAuthorizedRepository interface {
	Grant(user domain.UserID, chat domain.ChatID) error
	Revoke(user domain.UserID, chat domain.ChatID) error
	Exists(user domain.UserID, chat domain.ChatID) (bool, error)
}

// AuthorizedRepository holds the edit-moderation allowlist, keyed by
// the (user, chat) composite pair.
type AuthorizedRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewAuthorizedRepository(db *badger.DB, log *slog.Logger) AuthorizedRepository {
	return AuthorizedRepository{db: db, log: log}
}

type authorizedRecord struct {
	UserID    int64 `json:"user_id"`
	ChatID    int64 `json:"chat_id"`
	GrantedAt int64 `json:"granted_at"`
}

// Grant exempts edits by user in chat from moderation. Idempotent.
func (a AuthorizedRepository) Grant(user domain.UserID, chat domain.ChatID) error {
	record := authorizedRecord{
		UserID:    int64(user),
		ChatID:    int64(chat),
		GrantedAt: time.Now().UnixNano(),
	}
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	err = a.db.Update(func(txn *badger.Txn) error {
		return txn.Set(authorizedKey(user, chat), data)
	})
	if err != nil {
		return fmt.Errorf("%w: grant %d in chat %d: %v", errors.ErrStorageUnavailable, user, chat, err)
	}
	return nil
}

// Revoke removes the exemption. Revoking an absent entry succeeds.
func (a AuthorizedRepository) Revoke(user domain.UserID, chat domain.ChatID) error {
	err := a.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(authorizedKey(user, chat))
	})
	if err != nil {
		return fmt.Errorf("%w: revoke %d in chat %d: %v", errors.ErrStorageUnavailable, user, chat, err)
	}
	return nil
}

func (a AuthorizedRepository) Exists(user domain.UserID, chat domain.ChatID) (bool, error) {
	found := false
	err := a.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(authorizedKey(user, chat))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("%w: lookup authorization %d in chat %d: %v", errors.ErrStorageUnavailable, user, chat, err)
	}
	return found, nil
}

const authorizedPrefix = "auth:"

func authorizedKey(user domain.UserID, chat domain.ChatID) []byte {
	return []byte(fmt.Sprintf("%s%d:%d", authorizedPrefix, user, chat))
}
