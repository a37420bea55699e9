package repositories

import (
	"guard-lab/domain"
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func Test_Observe_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	repository := NewChatRepository(openTestDB(t), logs.GetLoggerFromLevel(slog.LevelDebug))

	group := domain.Chat{ID: 42, Kind: domain.ChatGroup, Title: "ops"}
	// Same chat observed twice, as when two events for a brand-new chat
	// arrive back to back
	req.NoError(repository.Observe(group))
	req.NoError(repository.Observe(group))

	chats, err := repository.Snapshot()
	req.NoError(err)
	req.Len(chats, 1)
	req.Equal(domain.ChatGroup, chats[0].Kind)
}

func Test_Observe_Kind_Is_Immutable(t *testing.T) {
	req := require.New(t)
	repository := NewChatRepository(openTestDB(t), logs.GetLoggerFromLevel(slog.LevelDebug))

	req.NoError(repository.Observe(domain.Chat{ID: 7, Kind: domain.ChatGroup}))
	// A later event claiming a different kind must not rewrite the record
	req.NoError(repository.Observe(domain.Chat{ID: 7, Kind: domain.ChatPrivate}))

	chats, err := repository.Snapshot()
	req.NoError(err)
	req.Len(chats, 1)
	req.Equal(domain.ChatGroup, chats[0].Kind)
}

func Test_Snapshot_Returns_All_Kinds(t *testing.T) {
	req := require.New(t)
	repository := NewChatRepository(openTestDB(t), logs.GetLoggerFromLevel(slog.LevelDebug))

	req.NoError(repository.Observe(domain.Chat{ID: 1, Kind: domain.ChatGroup, Title: "alpha"}))
	req.NoError(repository.Observe(domain.Chat{ID: 2, Kind: domain.ChatPrivate}))
	req.NoError(repository.Observe(domain.Chat{ID: 3, Kind: domain.ChatGroup, Title: "beta"}))

	chats, err := repository.Snapshot()
	req.NoError(err)
	req.Len(chats, 3)
}

func Test_Snapshot_Empty_Registry(t *testing.T) {
	req := require.New(t)
	repository := NewChatRepository(openTestDB(t), logs.GetLoggerFromLevel(slog.LevelDebug))

	chats, err := repository.Snapshot()
	req.NoError(err)
	req.Empty(chats)
}
