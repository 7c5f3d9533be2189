package auth

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"userweb/internal/logging"
	"userweb/internal/password"
	"userweb/internal/store"
)

func newTestService(t *testing.T, name string) (*Service, *sql.DB) {
	t.Helper()

	db, err := store.Open("file:" + name + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, store.Migrate(context.Background(), db))

	return NewService(db, logging.New("error")), db
}

func TestAuthenticate(t *testing.T) {
	svc, _ := newTestService(t, "auth_basic")
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "correct-password", nil)
	require.NoError(t, err)

	u, err := svc.Authenticate(ctx, "alice", "correct-password")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)

	_, err = svc.Authenticate(ctx, "alice", "wrong-password")
	assert.ErrorIs(t, err, ErrAuthFailed)
}

func TestAuthenticate_UniformFailure(t *testing.T) {
	svc, _ := newTestService(t, "auth_uniform")
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "correct-password", nil)
	require.NoError(t, err)

	// Unknown user and wrong password are indistinguishable.
	_, unknownErr := svc.Authenticate(ctx, "nobody", "whatever")
	_, wrongErr := svc.Authenticate(ctx, "alice", "whatever")

	assert.ErrorIs(t, unknownErr, ErrAuthFailed)
	assert.ErrorIs(t, wrongErr, ErrAuthFailed)
	assert.Equal(t, unknownErr.Error(), wrongErr.Error())
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc, db := newTestService(t, "auth_dup")
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "first-password", nil)
	require.NoError(t, err)

	_, err = svc.Register(ctx, "alice", "second-password", nil)
	assert.ErrorIs(t, err, store.ErrUsernameTaken)

	// The first registration's hash survived.
	u, err := store.NewUserRepo(db).GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, password.Verify(u.PasswordHash, "first-password"))
}

func TestRegister_WithRoles(t *testing.T) {
	svc, _ := newTestService(t, "auth_roles")
	ctx := context.Background()

	u, err := svc.Register(ctx, "alice", "pw-123456", []string{"admin", "user"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"admin", "user"}, u.Roles)

	list, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.ElementsMatch(t, []string{"admin", "user"}, list[0].Roles)
}

func TestRegister_UnknownRoleWritesNothing(t *testing.T) {
	svc, db := newTestService(t, "auth_badrole")
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "pw-123456", []string{"superuser"})

	var unknownRole *UnknownRoleError
	require.ErrorAs(t, err, &unknownRole)
	assert.Equal(t, "superuser", unknownRole.Role)

	// The transaction rolled back: no user row exists.
	_, err = store.NewUserRepo(db).GetByUsername(ctx, "alice")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestChangePassword(t *testing.T) {
	svc, _ := newTestService(t, "auth_chpw")
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "old-password", nil)
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, "alice", "not-the-password", "new-password")
	assert.ErrorIs(t, err, ErrWrongCurrentPassword)

	// Old password still works after the failed attempt.
	_, err = svc.Authenticate(ctx, "alice", "old-password")
	require.NoError(t, err)

	require.NoError(t, svc.ChangePassword(ctx, "alice", "old-password", "new-password"))

	_, err = svc.Authenticate(ctx, "alice", "old-password")
	assert.ErrorIs(t, err, ErrAuthFailed)
	_, err = svc.Authenticate(ctx, "alice", "new-password")
	require.NoError(t, err)
}

func TestBootstrap(t *testing.T) {
	svc, _ := newTestService(t, "auth_bootstrap")
	ctx := context.Background()

	require.NoError(t, svc.Bootstrap(ctx, "admin", "admin-password"))

	u, err := svc.Authenticate(ctx, "admin", "admin-password")
	require.NoError(t, err)
	assert.Equal(t, "admin", u.Username)

	// A second bootstrap against a non-empty table is a no-op.
	require.NoError(t, svc.Bootstrap(ctx, "admin2", "other-password"))
	_, err = svc.Authenticate(ctx, "admin2", "other-password")
	assert.ErrorIs(t, err, ErrAuthFailed)

	// Empty credentials disable bootstrapping entirely.
	svc2, _ := newTestService(t, "auth_bootstrap_empty")
	require.NoError(t, svc2.Bootstrap(ctx, "", ""))
	users, err := svc2.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)
}
