package auth

import (
	"context"
	"errors"
)

// Resolver maps an authenticated user to a role.
//
// An identity without a profile resolves to RoleUnresolved with a nil
// error; errors are reserved for infrastructure failures.
type Resolver interface {
	ResolveRole(ctx context.Context, userID string) (Role, error)
}

// Invalidator is implemented by resolvers that cache results.
type Invalidator interface {
	Invalidate(ctx context.Context, userID string) error
}

// roleLookup is the part of ProfileRepository the resolver needs.
type roleLookup interface {
	RoleForUser(ctx context.Context, userID string) (Role, error)
}

// ProfileResolver resolves roles from stored identity profiles.
type ProfileResolver struct {
	profiles roleLookup
}

// NewProfileResolver creates a resolver backed by profiles.
func NewProfileResolver(profiles roleLookup) *ProfileResolver {
	return &ProfileResolver{profiles: profiles}
}

// ResolveRole returns the user's role, or RoleUnresolved if they have no profile.
func (r *ProfileResolver) ResolveRole(ctx context.Context, userID string) (Role, error) {
	if userID == "" {
		return RoleUnresolved, nil
	}
	role, err := r.profiles.RoleForUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return RoleUnresolved, nil
		}
		return RoleUnresolved, err
	}
	if !role.IsValid() {
		return RoleUnresolved, nil
	}
	return role, nil
}

// Authorizer combines a Resolver with the policy table.
type Authorizer struct {
	resolver Resolver
}

// NewAuthorizer creates an Authorizer.
func NewAuthorizer(resolver Resolver) *Authorizer {
	return &Authorizer{resolver: resolver}
}

// Resolve turns an identity into a Principal. Anonymous identities are
// returned without consulting the resolver.
func (a *Authorizer) Resolve(ctx context.Context, id Identity) (Principal, error) {
	p := Principal{Identity: id, Role: RoleUnresolved}
	if !id.Authenticated {
		return p, nil
	}
	role, err := a.resolver.ResolveRole(ctx, id.UserID)
	if err != nil {
		return p, err
	}
	p.Role = role
	return p, nil
}

// Authorize resolves id and evaluates the policy for (res, act, target).
// A resolver failure denies the request and returns the error.
func (a *Authorizer) Authorize(ctx context.Context, id Identity, res Resource, act Action, target any) (Decision, error) {
	p, err := a.Resolve(ctx, id)
	if err != nil {
		return DenyForbidden, err
	}
	return Decide(p, res, act, target), nil
}

// Invalidate drops any cached role for userID. It is a no-op when the
// resolver does not cache.
func (a *Authorizer) Invalidate(ctx context.Context, userID string) error {
	if inv, ok := a.resolver.(Invalidator); ok {
		return inv.Invalidate(ctx, userID)
	}
	return nil
}
