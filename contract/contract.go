//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"guard-lab/domain"
	"reflect"
)

// Sender is the outbound half of the platform: the only operations the
// core ever invokes against a chat. Implementations live at the
// transport boundary; the core treats every call as fallible.
type Sender interface {
	SendText(ctx context.Context, chat domain.ChatID, text string) error
	DeleteMessage(ctx context.Context, ref domain.MessageRef) error
	ForwardMessage(ctx context.Context, ref domain.MessageRef, dest domain.ChatID) error
	CopyMessage(ctx context.Context, ref domain.MessageRef, dest domain.ChatID) error
}

// UserResolver turns an explicit @handle or numeric id argument into a
// concrete platform identity.
type UserResolver interface {
	ResolveUser(ctx context.Context, handleOrID string) (domain.User, error)
}

// ChatAdminChecker answers whether a user holds the chat's own
// administrative owner role, a per-chat role distinct from the bot owner.
type ChatAdminChecker interface {
	IsChatAdmin(ctx context.Context, chat domain.ChatID, user domain.UserID) (bool, error)
}

// EventSource produces decoded inbound events until its context ends.
type EventSource interface {
	Events() <-chan domain.Event
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker
// lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
