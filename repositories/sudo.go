//go:generate go run go.uber.org/mock/mockgen -source=sudo.go -destination=../mocks/mock_sudo_repository.go -package=mocks
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

type ISudoRepository interface {
	Add(user domain.UserID, handle string) error
	Remove(user domain.UserID) error
	Exists(user domain.UserID) (bool, error)
}

type SudoRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewSudoRepository(db *badger.DB, log *slog.Logger) SudoRepository {
	return SudoRepository{db: db, log: log}
}

type sudoRecord struct {
	UserID    int64  `json:"user_id"`
	Handle    string `json:"handle,omitempty"`
	GrantedAt int64  `json:"granted_at"`
}

// Add grants the elevated role. Granting an existing member succeeds
// and refreshes the stored handle.
func (s SudoRepository) Add(user domain.UserID, handle string) error {
	record := sudoRecord{
		UserID:    int64(user),
		Handle:    handle,
		GrantedAt: time.Now().UnixNano(),
	}
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(sudoKey(user), data)
	})
	if err != nil {
		return fmt.Errorf("%w: add sudoer %d: %v", errors.ErrStorageUnavailable, user, err)
	}
	return nil
}

// Remove revokes the role. Removing a non-member succeeds.
func (s SudoRepository) Remove(user domain.UserID) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(sudoKey(user))
	})
	if err != nil {
		return fmt.Errorf("%w: remove sudoer %d: %v", errors.ErrStorageUnavailable, user, err)
	}
	return nil
}

func (s SudoRepository) Exists(user domain.UserID) (bool, error) {
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(sudoKey(user))
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
		return false, fmt.Errorf("%w: lookup sudoer %d: %v", errors.ErrStorageUnavailable, user, err)
	}
	return found, nil
}

const sudoPrefix = "sudo:"

func sudoKey(user domain.UserID) []byte {
	return []byte(fmt.Sprintf("%s%d", sudoPrefix, user))
}
