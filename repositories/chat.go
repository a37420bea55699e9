//go:generate go run go.uber.org/mock/mockgen -source=chat.go -destination=../mocks/mock_chat_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"guard-lab/domain"
	"guard-lab/errors"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
)

type IChatRepository interface {
	Observe(chat domain.Chat) error
	Snapshot() ([]domain.Chat, error)
}

type ChatRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewChatRepository(db *badger.DB, log *slog.Logger) ChatRepository {
	return ChatRepository{db: db, log: log}
}

// chatRecord is the stored shape of one known chat.
// Kind is immutable once written; FirstSeen is informational only.
type chatRecord struct {
	ChatID    int64  `json:"chat_id"`
	Kind      string `json:"kind"`
	Title     string `json:"title,omitempty"`
	FirstSeen int64  `json:"first_seen"`
}

// Observe registers a chat on its first observed event. Re-observing a
// known chat is a no-op, so two concurrent calls for a brand-new chat
// both converge on one identical record (check-then-insert inside a
// single transaction).
func (c ChatRepository) Observe(chat domain.Chat) error {
	key := chatKey(chat.ID)
	err := c.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err == nil {
			return nil
		} else if err != badger.ErrKeyNotFound {
			return err
		}
		record := chatRecord{
			ChatID:    int64(chat.ID),
			Kind:      string(chat.Kind),
			Title:     chat.Title,
			FirstSeen: time.Now().UnixNano(),
		}
		data, err := json.Marshal(record)
		if err != nil {
			return err
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return fmt.Errorf("%w: observe chat %d: %v", errors.ErrStorageUnavailable, chat.ID, err)
	}
	return nil
}

// Snapshot returns every known chat at call time. Broadcasts run over
// one snapshot; later insertions never join an in-flight run.
func (c ChatRepository) Snapshot() ([]domain.Chat, error) {
	var records []chatRecord
	err := c.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(chatPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var record chatRecord
				if err := json.Unmarshal(val, &record); err != nil {
					return err
				}
				records = append(records, record)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: chat snapshot: %v", errors.ErrStorageUnavailable, err)
	}
	return lo.Map(records, func(record chatRecord, _ int) domain.Chat {
		return domain.Chat{
			ID:    domain.ChatID(record.ChatID),
			Kind:  domain.ChatKind(record.Kind),
			Title: record.Title,
		}
	}), nil
}

const chatPrefix = "chat:"

func chatKey(id domain.ChatID) []byte {
	return []byte(fmt.Sprintf("%s%d", chatPrefix, id))
}
