//go:generate go run go.uber.org/mock/mockgen -source=blocked.go -destination=../mocks/mock_blocked_repository.go -package=mocks
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

type IBlockedRepository interface {
	Mark(chat domain.ChatID) error
	Exists(chat domain.ChatID) (bool, error)
	All() ([]domain.ChatID, error)
}

// BlockedRepository records chats that failed a broadcast delivery.
// Marks are bookkeeping only: broadcasts never consult them to filter
// recipients.
type BlockedRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewBlockedRepository(db *badger.DB, log *slog.Logger) BlockedRepository {
	return BlockedRepository{db: db, log: log}
}

type blockedRecord struct {
	ChatID      int64 `json:"chat_id"`
	Failures    int   `json:"failures"`
	LastFailure int64 `json:"last_failure"`
}

// Mark upserts the failure record for a chat, bumping its counter.
func (b BlockedRepository) Mark(chat domain.ChatID) error {
	key := blockedKey(chat)
	err := b.db.Update(func(txn *badger.Txn) error {
		record := blockedRecord{ChatID: int64(chat)}
		item, err := txn.Get(key)
		switch err {
		case nil:
			err = item.Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			})
			if err != nil {
				return err
			}
		case badger.ErrKeyNotFound:
		default:
			return err
		}
		record.Failures++
		record.LastFailure = time.Now().UnixNano()
		data, err := json.Marshal(record)
		if err != nil {
			return err
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return fmt.Errorf("%w: mark blocked chat %d: %v", errors.ErrStorageUnavailable, chat, err)
	}
	return nil
}

func (b BlockedRepository) Exists(chat domain.ChatID) (bool, error) {
	found := false
	err := b.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(blockedKey(chat))
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
		return false, fmt.Errorf("%w: lookup blocked chat %d: %v", errors.ErrStorageUnavailable, chat, err)
	}
	return found, nil
}

func (b BlockedRepository) All() ([]domain.ChatID, error) {
	var chats []domain.ChatID
	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(blockedPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var record blockedRecord
				if err := json.Unmarshal(val, &record); err != nil {
					return err
				}
				chats = append(chats, domain.ChatID(record.ChatID))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: list blocked chats: %v", errors.ErrStorageUnavailable, err)
	}
	return chats, nil
}

const blockedPrefix = "blocked:"

func blockedKey(chat domain.ChatID) []byte {
	return []byte(fmt.Sprintf("%s%d", blockedPrefix, chat))
}
