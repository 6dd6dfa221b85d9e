package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finman/internal/core"
)

func TestRegister(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
		confirm  string
		wantErr  error
	}{
		{"short username", " al ", "secret1", "secret1", core.ErrUsernameTooShort},
		{"short password", "alice", "12345", "12345", core.ErrPasswordTooShort},
		{"mismatch", "alice", "secret1", "secret2", core.ErrPasswordMismatch},
		{"valid", "  alice  ", "secret1", "secret1", nil},
		{"duplicate", "alice", "another1", "another1", core.ErrDuplicateUsername},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := env.auth.Register(ctx, tt.username, tt.password, tt.confirm)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "alice", u.Username)
			assert.True(t, strings.HasPrefix(u.PasswordHash, "$2"), "expected a bcrypt hash")
		})
	}
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.auth.Register(ctx, "alice", "secret1", "secret1")
	require.NoError(t, err)

	sess, err := env.auth.Login(ctx, " alice ", "secret1")
	require.NoError(t, err)
	assert.True(t, sess.Valid())
	assert.Equal(t, "alice", sess.Username)

	_, err = env.auth.Login(ctx, "alice", "wrong-password")
	assert.ErrorIs(t, err, core.ErrInvalidCredentials)

	_, err = env.auth.Login(ctx, "nobody", "secret1")
	assert.ErrorIs(t, err, core.ErrInvalidCredentials)

	assert.False(t, env.auth.Logout(ctx, sess).Valid())
}

func TestRefresh(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sess := env.session(t, "alice")

	got, err := env.auth.Refresh(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, sess, got)

	sess.Username = "mallory"
	_, err = env.auth.Refresh(ctx, sess)
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = env.auth.Refresh(ctx, core.Session{UserID: 404, Username: "ghost"})
	assert.ErrorIs(t, err, core.ErrNotFound)
}
