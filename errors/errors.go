package errors

import "fmt"

var (
	ErrWorkerPanic        = fmt.Errorf("worker panic")
	ErrPermissionDenied   = fmt.Errorf("permission denied")
	ErrTargetUnresolved   = fmt.Errorf("target user could not be resolved")
	ErrNoSourceMessage    = fmt.Errorf("no source message to broadcast")
	ErrStorageUnavailable = fmt.Errorf("storage unavailable")
	ErrEmptyDictionary    = fmt.Errorf("no banned words have been found")
	ErrUnknownEventKind   = fmt.Errorf("unknown event kind")
)
