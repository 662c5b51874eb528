package user

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gomessenger/internal/common"
)

func newAuthFixture() (AuthService, *fakeUserRepo) {
	repo := newFakeUserRepo()
	tokens := common.NewTokenIssuer("test-secret", time.Hour)
	return NewAuthService(repo, tokens), repo
}

func TestLoginRegistersUnknownUser(t *testing.T) {
	svc, repo := newAuthFixture()
	ctx := context.Background()

	u, token, err := svc.Login(ctx, "alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.NotEmpty(t, token)

	stored, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.NotEmpty(t, stored.PasswordHash)
	assert.NoError(t, common.CheckPassword("s3cret", stored.PasswordHash))
}

func TestLoginChecksPassword(t *testing.T) {
	svc, _ := newAuthFixture()
	ctx := context.Background()

	_, _, err := svc.Login(ctx, "alice", "s3cret")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "alice", "s3cret")
	assert.NoError(t, err)
}

func TestLoginPasswordlessUser(t *testing.T) {
	svc, _ := newAuthFixture()
	ctx := context.Background()

	// Registered without a password: any later password is accepted.
	_, _, err := svc.Login(ctx, "guest", "")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "guest", "whatever")
	assert.NoError(t, err)
}

func TestLoginRejectsBadUsername(t *testing.T) {
	svc, _ := newAuthFixture()
	_, _, err := svc.Login(context.Background(), "no spaces!", "pw")
	assert.Error(t, err)
}

func TestLoginInactiveUser(t *testing.T) {
	svc, repo := newAuthFixture()
	ctx := context.Background()

	_, _, err := svc.Login(ctx, "alice", "pw")
	require.NoError(t, err)
	repo.users["alice"].Status = "banned"

	_, _, err = svc.Login(ctx, "alice", "pw")
	assert.ErrorIs(t, err, ErrUserNotActive)
}

func TestResume(t *testing.T) {
	svc, repo := newAuthFixture()
	ctx := context.Background()

	_, token, err := svc.Login(ctx, "alice", "pw")
	require.NoError(t, err)

	u, err := svc.Resume(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)

	_, err = svc.Resume(ctx, "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	repo.users["alice"].Status = "banned"
	_, err = svc.Resume(ctx, token)
	assert.ErrorIs(t, err, ErrUserNotActive)
}

func TestResumeExpiredToken(t *testing.T) {
	repo := newFakeUserRepo("alice")
	tokens := common.NewTokenIssuer("test-secret", -time.Minute)
	svc := NewAuthService(repo, tokens)

	_, token, err := svc.Login(context.Background(), "alice", "")
	require.NoError(t, err)

	_, err = svc.Resume(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
