package runtime

import (
	"context"
	"fmt"
	"guard-lab/access"
	"guard-lab/broadcast"
	"guard-lab/domain"
	"guard-lab/mocks"
	"guard-lab/moderation"
	"guard-lab/observability"
	"guard-lab/presence"
	"guard-lab/repositories"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const ownerID = domain.UserID(1)

var (
	groupChat   = domain.Chat{ID: 100, Kind: domain.ChatGroup, Title: "den"}
	privateChat = domain.Chat{ID: 42, Kind: domain.ChatPrivate}
	maya        = domain.User{ID: 7, DisplayName: "Maya"}
)

type dispatcherFixture struct {
	dispatcher *Dispatcher
	registry   repositories.ChatRepository
	sudoers    repositories.SudoRepository
	sender     *mocks.MockSender
	sent       *[]string
	now        *time.Time
}

func newDispatcherFixture(t *testing.T) dispatcherFixture {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctrl := gomock.NewController(t)
	sender := mocks.NewMockSender(ctrl)
	admins := mocks.NewMockChatAdminChecker(ctrl)
	admins.EXPECT().IsChatAdmin(gomock.Any(), gomock.Any(), gomock.Any()).Return(false, nil).AnyTimes()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	sent := &[]string{}
	sender.EXPECT().SendText(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ domain.ChatID, text string) error {
			*sent = append(*sent, text)
			return nil
		}).AnyTimes()
	sender.EXPECT().DeleteMessage(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	sender.EXPECT().ForwardMessage(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	sender.EXPECT().CopyMessage(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	registry := repositories.NewChatRepository(db, log)
	sudoers := repositories.NewSudoRepository(db, log)
	control := access.NewControl(ownerID, sudoers, mocks.NewMockUserResolver(ctrl), log)
	tracker := presence.NewTracker(repositories.NewPresenceRepository(db, log), func() time.Time { return now }, log)
	screener, err := moderation.NewScreener([]string{"badger"}, '*')
	require.NoError(t, err)
	gate := moderation.NewGate(repositories.NewAuthorizedRepository(db, log), control, admins, sender, screener, log)
	engine := broadcast.NewEngine(registry, repositories.NewBlockedRepository(db, log), control, sender, log)
	monitor := observability.NewMonitor(log)

	source := mocks.NewMockEventSource(gomock.NewController(t))
	return dispatcherFixture{
		dispatcher: NewDispatcher(source, registry, tracker, gate, control, engine, sender, monitor, log),
		registry:   registry,
		sudoers:    sudoers,
		sender:     sender,
		sent:       sent,
		now:        &now,
	}
}

func groupText(author domain.User, text string) domain.Message {
	return domain.Message{ID: 500, In: groupChat, Author: author, Text: text}
}

func Test_Dispatcher_Registers_Every_Chat_Once(t *testing.T) {
	f := newDispatcherFixture(t)
	ctx := context.Background()

	f.dispatcher.Handle(ctx, groupText(maya, "morning"))
	f.dispatcher.Handle(ctx, groupText(maya, "still here"))
	f.dispatcher.Handle(ctx, domain.Message{ID: 1, In: privateChat, Author: maya, Text: "psst"})

	chats, err := f.registry.Snapshot()
	require.NoError(t, err)
	require.Len(t, chats, 2)
}

func Test_Dispatcher_AFK_Round_Trip(t *testing.T) {
	f := newDispatcherFixture(t)
	ctx := context.Background()

	f.dispatcher.Handle(ctx, groupText(maya, "/afk 1h lunch"))
	require.Len(t, *f.sent, 1)
	require.Contains(t, (*f.sent)[0], "Maya")

	// An unknown slash command is not qualifying activity
	*f.now = f.now.Add(10 * time.Minute)
	f.dispatcher.Handle(ctx, groupText(maya, "/unknowncommand"))
	require.Len(t, *f.sent, 1)

	*f.now = f.now.Add(30 * time.Minute)
	f.dispatcher.Handle(ctx, groupText(maya, "back now"))
	require.Len(t, *f.sent, 2)
	require.Contains(t, (*f.sent)[1], "40 minutes")
}

func Test_Dispatcher_AFK_Ignored_In_Private_Chats(t *testing.T) {
	f := newDispatcherFixture(t)

	f.dispatcher.Handle(context.Background(), domain.Message{
		ID: 2, In: privateChat, Author: maya, Text: "/afk nap",
	})
	require.Empty(t, *f.sent)
}

func Test_Dispatcher_Mentions_Announce_Absence(t *testing.T) {
	f := newDispatcherFixture(t)
	ctx := context.Background()
	yara := domain.User{ID: 8, DisplayName: "Yara"}

	f.dispatcher.Handle(ctx, groupText(maya, "/afk 2h errands"))
	*f.sent = nil

	msg := groupText(yara, "ping")
	msg.Mentions = []domain.Mention{{Target: maya, Kind: domain.MentionDirect}}
	f.dispatcher.Handle(ctx, msg)

	require.Len(t, *f.sent, 1)
	require.Contains(t, (*f.sent)[0], "Maya")
	require.Contains(t, (*f.sent)[0], "errands")
}

func Test_Dispatcher_Screened_Message_Suppresses_Mentions(t *testing.T) {
	f := newDispatcherFixture(t)
	ctx := context.Background()
	yara := domain.User{ID: 8, DisplayName: "Yara"}

	f.dispatcher.Handle(ctx, groupText(maya, "/afk errands"))
	*f.sent = nil

	msg := groupText(yara, "the badger returns")
	msg.Mentions = []domain.Mention{{Target: maya, Kind: domain.MentionDirect}}
	f.dispatcher.Handle(ctx, msg)

	// Only the censored rendition goes out, never the mention notice
	require.Len(t, *f.sent, 1)
	require.Contains(t, (*f.sent)[0], "******")
}

func Test_Dispatcher_Moderates_Unauthorized_Edits(t *testing.T) {
	f := newDispatcherFixture(t)

	f.dispatcher.Handle(context.Background(), domain.EditedMessage{
		ID: 900, In: groupChat, Author: maya, Text: "revised",
	})
	require.Len(t, *f.sent, 1)
	require.Contains(t, (*f.sent)[0], "Maya")
}

func Test_Dispatcher_Rejects_Broadcast_Without_Elevation(t *testing.T) {
	f := newDispatcherFixture(t)
	msg := groupText(maya, "/broadcast")
	msg.ReplyTo = &domain.ReplyRef{
		Ref:    domain.MessageRef{ChatID: groupChat.ID, MessageID: 321},
		Author: maya,
	}

	f.dispatcher.Handle(context.Background(), msg)
	require.Equal(t, []string{"You are not authorized to do that."}, *f.sent)
}

func Test_Dispatcher_Broadcast_By_Owner_Reports_Deliveries(t *testing.T) {
	f := newDispatcherFixture(t)
	ctx := context.Background()
	owner := domain.User{ID: ownerID, DisplayName: "Root"}

	for i := range 3 {
		f.dispatcher.Handle(ctx, domain.Message{
			ID: int64(i), In: domain.Chat{ID: domain.ChatID(200 + i), Kind: domain.ChatGroup}, Author: maya,
			Text: fmt.Sprintf("hello %d", i),
		})
	}
	*f.sent = nil

	msg := domain.Message{ID: 50, In: groupChat, Author: owner, Text: "/broadcast"}
	msg.ReplyTo = &domain.ReplyRef{
		Ref:    domain.MessageRef{ChatID: groupChat.ID, MessageID: 321},
		Author: owner,
	}
	f.dispatcher.Handle(ctx, msg)

	require.Len(t, *f.sent, 1)
	require.Contains(t, (*f.sent)[0], "4 group")
}

func Test_Dispatcher_Survives_Collaborator_Failures(t *testing.T) {
	f := newDispatcherFixture(t)
	ctx := context.Background()

	// A fresh sender that always fails replaces the recording one
	ctrl := gomock.NewController(t)
	failing := mocks.NewMockSender(ctrl)
	failing.EXPECT().SendText(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(fmt.Errorf("wire down")).AnyTimes()
	failing.EXPECT().DeleteMessage(gomock.Any(), gomock.Any()).
		Return(fmt.Errorf("wire down")).AnyTimes()
	f.dispatcher.sender = failing

	f.dispatcher.Handle(ctx, groupText(maya, "/afk tea"))
	f.dispatcher.Handle(ctx, domain.EditedMessage{ID: 901, In: groupChat, Author: maya, Text: "revised"})

	// Registration kept working throughout
	chats, err := f.registry.Snapshot()
	require.NoError(t, err)
	require.Len(t, chats, 1)
}

func Test_Dispatcher_Run_Drains_Source(t *testing.T) {
	f := newDispatcherFixture(t)

	events := make(chan domain.Event, 2)
	events <- groupText(maya, "one")
	events <- groupText(maya, "two")
	close(events)

	ctrl := gomock.NewController(t)
	source := mocks.NewMockEventSource(ctrl)
	var recv <-chan domain.Event = events
	source.EXPECT().Events().Return(recv).AnyTimes()
	f.dispatcher.source = source

	require.NoError(t, f.dispatcher.Run(context.Background()))

	chats, err := f.registry.Snapshot()
	require.NoError(t, err)
	require.Len(t, chats, 1)
}
