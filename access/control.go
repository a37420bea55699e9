// Package access implements the tiered access model: a single static
// owner identity plus a mutable sudo set granting elevated access.
package access

import (
	"context"
	"fmt"
	"guard-lab/contract"
	"guard-lab/domain"
	"guard-lab/errors"
	"guard-lab/repositories"
	"log/slog"
)

type Control struct {
	owner    domain.UserID
	sudoers  repositories.ISudoRepository
	resolver contract.UserResolver
	log      *slog.Logger
}

func NewControl(owner domain.UserID, sudoers repositories.ISudoRepository,
	resolver contract.UserResolver, log *slog.Logger) *Control {
	return &Control{owner: owner, sudoers: sudoers, resolver: resolver, log: log}
}

// IsOwner compares against the configured owner identity. The owner
// never needs a sudo entry: every sudo check passes implicitly.
func (c *Control) IsOwner(id domain.UserID) bool {
	return id == c.owner
}

func (c *Control) IsSudo(id domain.UserID) (bool, error) {
	return c.sudoers.Exists(id)
}

func (c *Control) HasElevated(id domain.UserID) (bool, error) {
	if c.IsOwner(id) {
		return true, nil
	}
	return c.IsSudo(id)
}

// GrantSudo adds the resolved target to the sudo set. Only the owner
// may mutate the set; granting an existing member succeeds.
// The resolved target is returned so the caller can word its notice.
func (c *Control) GrantSudo(ctx context.Context, requester domain.User,
	reply *domain.ReplyRef, handleArg string) (domain.User, error) {
	if !c.IsOwner(requester.ID) {
		return domain.User{}, fmt.Errorf("%w: sudo grant requires the owner", errors.ErrPermissionDenied)
	}
	target, err := c.resolveTarget(ctx, reply, handleArg)
	if err != nil {
		return domain.User{}, err
	}
	if err := c.sudoers.Add(target.ID, target.Handle); err != nil {
		return domain.User{}, err
	}
	c.log.Info("Sudo granted", "target", target.ID, "by", requester.ID)
	return target, nil
}

// RevokeSudo removes the resolved target from the sudo set. Revoking a
// non-member succeeds.
func (c *Control) RevokeSudo(ctx context.Context, requester domain.User,
	reply *domain.ReplyRef, handleArg string) (domain.User, error) {
	if !c.IsOwner(requester.ID) {
		return domain.User{}, fmt.Errorf("%w: sudo revoke requires the owner", errors.ErrPermissionDenied)
	}
	target, err := c.resolveTarget(ctx, reply, handleArg)
	if err != nil {
		return domain.User{}, err
	}
	if err := c.sudoers.Remove(target.ID); err != nil {
		return domain.User{}, err
	}
	c.log.Info("Sudo revoked", "target", target.ID, "by", requester.ID)
	return target, nil
}

// resolveTarget prefers the reply-reference, then the explicit
// handle/id argument through the platform resolver.
func (c *Control) resolveTarget(ctx context.Context, reply *domain.ReplyRef, handleArg string) (domain.User, error) {
	if reply != nil {
		return reply.Author, nil
	}
	if handleArg == "" {
		return domain.User{}, errors.ErrTargetUnresolved
	}
	target, err := c.resolver.ResolveUser(ctx, handleArg)
	if err != nil {
		return domain.User{}, fmt.Errorf("%w: %q: %v", errors.ErrTargetUnresolved, handleArg, err)
	}
	return target, nil
}
