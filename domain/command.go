package domain

// Command is a parsed slash command extracted from a Message.
type Command interface {
	CommandName() string
}

type StartCommand struct {
	Requester User
	In        Chat
}

func (StartCommand) CommandName() string { return "start" }

type SetAFKCommand struct {
	Requester User
	In        Chat
	// FreeText is everything after the command word, fed to the
	// duration grammar untouched.
	FreeText string
}

func (SetAFKCommand) CommandName() string { return "afk" }

type BroadcastCommand struct {
	Requester User
	In        Chat
	Source    *ReplyRef
}

func (BroadcastCommand) CommandName() string { return "broadcast" }

type PromoteSudoCommand struct {
	Requester User
	In        Chat
	Reply     *ReplyRef
	// HandleArg is the optional explicit @handle or numeric id argument,
	// used when the command is not a reply.
	HandleArg string
}

func (PromoteSudoCommand) CommandName() string { return "promote" }

type DemoteSudoCommand struct {
	Requester User
	In        Chat
	Reply     *ReplyRef
	HandleArg string
}

func (DemoteSudoCommand) CommandName() string { return "demote" }

type GrantEditCommand struct {
	Requester User
	In        Chat
	Reply     *ReplyRef
}

func (GrantEditCommand) CommandName() string { return "auth" }

type RevokeEditCommand struct {
	Requester User
	In        Chat
	Reply     *ReplyRef
}

func (RevokeEditCommand) CommandName() string { return "unauth" }
