package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"resolveit/backend/internal/apperr"
	"resolveit/backend/internal/auth"
	"resolveit/backend/internal/models"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveRole(t *testing.T) {
	tests := []struct {
		name   string
		stored []string
		want   auth.Role
	}{
		{"empty", nil, auth.RoleUser},
		{"user", []string{"USER"}, auth.RoleUser},
		{"officer wins over user", []string{"USER", "OFFICER"}, auth.RoleOfficer},
		{"admin wins", []string{"ROLE_OFFICER", "role_admin"}, auth.RoleAdmin},
		{"system is never granted", []string{"SYSTEM"}, auth.RoleUser},
		{"garbage ignored", []string{"superuser", "OFFICER"}, auth.RoleOfficer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, auth.ResolveRole(tt.stored))
		})
	}
}

func TestPermissionTable(t *testing.T) {
	tests := []struct {
		role   auth.Role
		action auth.Action
		want   bool
	}{
		{auth.RoleAnonymous, auth.ActionSubmitAnonymous, true},
		{auth.RoleAnonymous, auth.ActionSubmit, false},
		{auth.RoleUser, auth.ActionSubmit, true},
		{auth.RoleUser, auth.ActionAssign, false},
		{auth.RoleOfficer, auth.ActionAssign, false},
		{auth.RoleAdmin, auth.ActionAssign, true},
		{auth.RoleOfficer, auth.ActionEscalate, true},
		{auth.RoleSystem, auth.ActionEscalate, true},
		{auth.RoleUser, auth.ActionEscalate, false},
		{auth.RoleOfficer, auth.ActionDeEscalate, false},
		{auth.RoleAdmin, auth.ActionDeEscalate, true},
		{auth.RoleUser, auth.ActionAddNote, false},
		{auth.RoleOfficer, auth.ActionViewNotes, true},
		{auth.RoleOfficer, auth.ActionViewAll, false},
		{auth.RoleAnonymous, auth.ActionViewPublic, true},
		{auth.RoleAdmin, auth.Action("drop tables"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+string(tt.action), func(t *testing.T) {
			assert.Equal(t, tt.want, auth.Can(tt.role, tt.action))
		})
	}
}

func TestAuthorizeErrors(t *testing.T) {
	err := auth.Authorize(auth.Anonymous(), auth.ActionSubmit)
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))

	err = auth.Authorize(auth.Actor{ID: 1, Role: auth.RoleUser}, auth.ActionAssign)
	var authz *apperr.AuthorizationError
	require.True(t, errors.As(err, &authz))
	assert.Equal(t, "USER", authz.Role)

	assert.NoError(t, auth.Authorize(auth.Actor{ID: 1, Role: auth.RoleAdmin}, auth.ActionAssign))
}

func TestActor(t *testing.T) {
	u := &models.User{ID: 4, Username: "ivan", FullName: "Ivan Franko", Roles: pq.StringArray{"OFFICER"}}
	a := auth.ActorFromUser(u)

	assert.Equal(t, auth.RoleOfficer, a.Role)
	assert.True(t, a.IsAuthenticated())
	assert.Equal(t, "Ivan Franko", a.DisplayName())
	require.NotNil(t, a.UserID())
	assert.Equal(t, uint(4), *a.UserID())

	sys := auth.SystemActor()
	assert.False(t, sys.IsAuthenticated())
	assert.Nil(t, sys.UserID())
	assert.Equal(t, "System", sys.DisplayName())

	assert.Equal(t, "Anonymous", auth.Anonymous().DisplayName())

	ctx := auth.WithActor(context.Background(), a)
	assert.Equal(t, a, auth.ActorFrom(ctx))
	assert.Equal(t, auth.RoleAnonymous, auth.ActorFrom(context.Background()).Role)
}

func TestTokenRoundTrip(t *testing.T) {
	issuer, err := auth.NewTokenIssuer("test-secret", "resolveit", time.Hour)
	require.NoError(t, err)

	token, err := issuer.Issue(&models.User{ID: 42, Username: "maria", Roles: pq.StringArray{"USER"}})
	require.NoError(t, err)

	id, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
}

func TestTokenRejections(t *testing.T) {
	issued := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	issuer, err := auth.NewTokenIssuer("test-secret", "resolveit", time.Hour)
	require.NoError(t, err)
	issuer.WithClock(func() time.Time { return issued })

	token, err := issuer.Issue(&models.User{ID: 1, Username: "u"})
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		issuer.WithClock(func() time.Time { return issued.Add(2 * time.Hour) })
		defer issuer.WithClock(func() time.Time { return issued })

		_, err := issuer.Verify(token)
		assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
		assert.Contains(t, err.Error(), "expired")
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := auth.NewTokenIssuer("other-secret", "resolveit", time.Hour)
		require.NoError(t, err)
		other.WithClock(func() time.Time { return issued })

		_, err = other.Verify(token)
		assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other, err := auth.NewTokenIssuer("test-secret", "someone-else", time.Hour)
		require.NoError(t, err)
		other.WithClock(func() time.Time { return issued })

		_, err = other.Verify(token)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := issuer.Verify("not.a.token")
		assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
	})
}

func TestNewTokenIssuerRequiresSecret(t *testing.T) {
	_, err := auth.NewTokenIssuer("", "resolveit", time.Hour)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := auth.HashPassword("s3cret!")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", hash)

	ok, err := auth.CheckPassword(hash, "s3cret!")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = auth.CheckPassword(hash, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = auth.CheckPassword("not-a-bcrypt-hash", "x")
	assert.Error(t, err)
}
