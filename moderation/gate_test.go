package moderation

import (
	"context"
	"fmt"
	"guard-lab/access"
	"guard-lab/domain"
	"guard-lab/errors"
	"guard-lab/mocks"
	"guard-lab/repositories"
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const ownerID = domain.UserID(1)

type gateFixture struct {
	gate      *Gate
	allowlist repositories.AuthorizedRepository
	sudoers   repositories.SudoRepository
	sender    *mocks.MockSender
	admins    *mocks.MockChatAdminChecker
}

func newGateFixture(t *testing.T, screener *Screener) gateFixture {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctrl := gomock.NewController(t)
	sender := mocks.NewMockSender(ctrl)
	admins := mocks.NewMockChatAdminChecker(ctrl)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	allowlist := repositories.NewAuthorizedRepository(db, log)
	sudoers := repositories.NewSudoRepository(db, log)
	control := access.NewControl(ownerID, sudoers, mocks.NewMockUserResolver(ctrl), log)
	return gateFixture{
		gate:      NewGate(allowlist, control, admins, sender, screener, log),
		allowlist: allowlist,
		sudoers:   sudoers,
		sender:    sender,
		admins:    admins,
	}
}

func groupEdit(author domain.User, text string) domain.EditedMessage {
	return domain.EditedMessage{
		ID:     77,
		In:     domain.Chat{ID: 100, Kind: domain.ChatGroup},
		Author: author,
		Text:   text,
	}
}

func Test_OnEdit_Deletes_Unauthorized_Edit(t *testing.T) {
	req := require.New(t)
	f := newGateFixture(t, nil)
	edit := groupEdit(domain.User{ID: 9, DisplayName: "Yara"}, "revised")

	f.sender.EXPECT().DeleteMessage(gomock.Any(), edit.Ref()).Return(nil)
	f.sender.EXPECT().SendText(gomock.Any(), edit.In.ID, gomock.Any()).Return(nil)

	moderated, err := f.gate.OnEdit(context.Background(), edit)
	req.NoError(err)
	req.True(moderated)
}

func Test_OnEdit_Spares_Authorized_Pair(t *testing.T) {
	req := require.New(t)
	f := newGateFixture(t, nil)
	edit := groupEdit(domain.User{ID: 9}, "revised")

	req.NoError(f.allowlist.Grant(9, edit.In.ID))
	// No sender expectations: nothing may be deleted or sent
	moderated, err := f.gate.OnEdit(context.Background(), edit)
	req.NoError(err)
	req.False(moderated)
}

func Test_OnEdit_Ignores_Attachment_Only_Edits(t *testing.T) {
	req := require.New(t)
	f := newGateFixture(t, nil)

	edit := domain.EditedMessage{
		ID:     77,
		In:     domain.Chat{ID: 100, Kind: domain.ChatGroup},
		Author: domain.User{ID: 9},
		// No text, no caption: the edit only touched attachments
	}
	moderated, err := f.gate.OnEdit(context.Background(), edit)
	req.NoError(err)
	req.False(moderated)
}

func Test_OnEdit_Ignores_Private_Chats(t *testing.T) {
	req := require.New(t)
	f := newGateFixture(t, nil)

	edit := domain.EditedMessage{
		ID:     77,
		In:     domain.Chat{ID: 100, Kind: domain.ChatPrivate},
		Author: domain.User{ID: 9},
		Text:   "revised",
	}
	moderated, err := f.gate.OnEdit(context.Background(), edit)
	req.NoError(err)
	req.False(moderated)
}

func Test_OnEdit_Survives_Delivery_Failure(t *testing.T) {
	req := require.New(t)
	f := newGateFixture(t, nil)
	edit := groupEdit(domain.User{ID: 9}, "revised")

	f.sender.EXPECT().DeleteMessage(gomock.Any(), edit.Ref()).Return(fmt.Errorf("gone"))
	f.sender.EXPECT().SendText(gomock.Any(), edit.In.ID, gomock.Any()).Return(fmt.Errorf("down"))

	// Both failures are logged, never escalated
	moderated, err := f.gate.OnEdit(context.Background(), edit)
	req.NoError(err)
	req.True(moderated)
}

func Test_Grant_By_Sudoer(t *testing.T) {
	req := require.New(t)
	f := newGateFixture(t, nil)
	chat := domain.Chat{ID: 100, Kind: domain.ChatGroup}

	req.NoError(f.sudoers.Add(5, "deputy"))
	reply := &domain.ReplyRef{Author: domain.User{ID: 9}}

	target, err := f.gate.Grant(context.Background(), domain.User{ID: 5}, chat, reply)
	req.NoError(err)
	req.Equal(domain.UserID(9), target.ID)

	exists, err := f.allowlist.Exists(9, chat.ID)
	req.NoError(err)
	req.True(exists)
}

func Test_Grant_By_Chat_Admin(t *testing.T) {
	req := require.New(t)
	f := newGateFixture(t, nil)
	chat := domain.Chat{ID: 100, Kind: domain.ChatGroup}
	requester := domain.User{ID: 42}

	f.admins.EXPECT().IsChatAdmin(gomock.Any(), chat.ID, requester.ID).Return(true, nil)
	reply := &domain.ReplyRef{Author: domain.User{ID: 9}}

	_, err := f.gate.Grant(context.Background(), requester, chat, reply)
	req.NoError(err)
}

func Test_Grant_Denied_For_Plain_User(t *testing.T) {
	req := require.New(t)
	f := newGateFixture(t, nil)
	chat := domain.Chat{ID: 100, Kind: domain.ChatGroup}
	requester := domain.User{ID: 42}

	f.admins.EXPECT().IsChatAdmin(gomock.Any(), chat.ID, requester.ID).Return(false, nil)
	reply := &domain.ReplyRef{Author: domain.User{ID: 9}}

	_, err := f.gate.Grant(context.Background(), requester, chat, reply)
	req.ErrorIs(err, errors.ErrPermissionDenied)

	exists, err := f.allowlist.Exists(9, chat.ID)
	req.NoError(err)
	req.False(exists)
}

func Test_Grant_Requires_Reply_Target(t *testing.T) {
	req := require.New(t)
	f := newGateFixture(t, nil)
	chat := domain.Chat{ID: 100, Kind: domain.ChatGroup}

	_, err := f.gate.Grant(context.Background(), domain.User{ID: ownerID}, chat, nil)
	req.ErrorIs(err, errors.ErrTargetUnresolved)
}

func Test_ScreenMessage_Censors_And_Replaces(t *testing.T) {
	req := require.New(t)
	screener, err := NewScreener([]string{"badger"}, '*')
	require.NoError(t, err)
	f := newGateFixture(t, screener)

	msg := domain.Message{
		ID:     12,
		In:     domain.Chat{ID: 100, Kind: domain.ChatGroup},
		Author: domain.User{ID: 9, DisplayName: "Yara"},
		Text:   "the badger strikes",
	}
	f.sender.EXPECT().DeleteMessage(gomock.Any(), msg.Ref()).Return(nil)
	f.sender.EXPECT().SendText(gomock.Any(), msg.In.ID, "Yara said: the ****** strikes").Return(nil)

	hit, err := f.gate.ScreenMessage(context.Background(), msg)
	req.NoError(err)
	req.True(hit)
}

func Test_ScreenMessage_Disabled_Without_Dictionary(t *testing.T) {
	req := require.New(t)
	f := newGateFixture(t, nil)

	msg := domain.Message{
		In:     domain.Chat{ID: 100, Kind: domain.ChatGroup},
		Author: domain.User{ID: 9},
		Text:   "anything at all",
	}
	hit, err := f.gate.ScreenMessage(context.Background(), msg)
	req.NoError(err)
	req.False(hit)
}
