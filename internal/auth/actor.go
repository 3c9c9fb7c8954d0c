package auth

import (
	"context"

	"resolveit/backend/internal/models"
)

const (
	systemName    = "System"
	anonymousName = "Anonymous"
)

// Actor is the identity every workflow operation is performed by. It is
// passed explicitly; nothing reads it from ambient state.
type Actor struct {
	ID       uint
	Username string
	FullName string
	Role     Role
}

// Anonymous is the actor for unauthenticated requests.
func Anonymous() Actor {
	return Actor{Role: RoleAnonymous}
}

// SystemActor is the actor automatic escalation runs as.
func SystemActor() Actor {
	return Actor{Username: "system", FullName: systemName, Role: RoleSystem}
}

// ActorFromUser resolves the capability of a stored account.
func ActorFromUser(u *models.User) Actor {
	return Actor{
		ID:       u.ID,
		Username: u.Username,
		FullName: u.FullName,
		Role:     ResolveRole(u.Roles),
	}
}

// IsAuthenticated reports whether the actor is a signed-in account.
func (a Actor) IsAuthenticated() bool {
	return a.Role == RoleUser || a.Role == RoleOfficer || a.Role == RoleAdmin
}

// UserID is nil for the system and anonymous actors.
func (a Actor) UserID() *uint {
	if !a.IsAuthenticated() {
		return nil
	}
	id := a.ID
	return &id
}

// DisplayName is what audit entries record.
func (a Actor) DisplayName() string {
	switch {
	case a.Role == RoleSystem:
		return systemName
	case a.Role == RoleAnonymous:
		return anonymousName
	case a.FullName != "":
		return a.FullName
	default:
		return a.Username
	}
}

type ctxKey struct{}

// WithActor attaches the actor to ctx for code paths that only carry a
// context, such as the websocket hub.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

// ActorFrom returns the attached actor, or Anonymous.
func ActorFrom(ctx context.Context) Actor {
	if a, ok := ctx.Value(ctxKey{}).(Actor); ok {
		return a
	}
	return Anonymous()
}
