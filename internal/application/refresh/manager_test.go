package refresh

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/notespace-api/internal/infrastructure/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_DistinctURLSafe(t *testing.T) {
	m := NewManager(memory.NewSecretStore(), time.Hour)
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		token, err := m.Generate()
		require.NoError(t, err)
		_, dup := seen[token]
		require.False(t, dup, "generated tokens must be unique")
		seen[token] = struct{}{}

		raw, err := base64.RawURLEncoding.DecodeString(token)
		require.NoError(t, err)
		assert.Len(t, raw, 32)
	}
}

func TestVerify_DoesNotConsume(t *testing.T) {
	ctx := context.Background()
	m := NewManager(memory.NewSecretStore(), time.Hour)

	token, err := m.Generate()
	require.NoError(t, err)
	require.NoError(t, m.Store(ctx, "user-1", token))

	for i := 0; i < 3; i++ {
		userID, ok, err := m.Verify(ctx, token)
		require.NoError(t, err)
		require.True(t, ok, "verification must not consume the token")
		assert.Equal(t, "user-1", userID)
	}
}

func TestVerify_AbsentToken(t *testing.T) {
	m := NewManager(memory.NewSecretStore(), time.Hour)
	_, ok, err := m.Verify(context.Background(), "no-such-token")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerify_ExpiredTokenDeleted(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSecretStore()
	m := NewManager(store, -time.Hour)

	token, err := m.Generate()
	require.NoError(t, err)
	require.NoError(t, m.Store(ctx, "user-1", token))

	_, ok, err := m.Verify(ctx, token)
	require.NoError(t, err)
	assert.False(t, ok)

	_, present, err := store.Get(ctx, token)
	require.NoError(t, err)
	assert.False(t, present, "expired record is deleted on sight")
}

func TestRevoke_InvalidatesToken(t *testing.T) {
	ctx := context.Background()
	m := NewManager(memory.NewSecretStore(), time.Hour)

	token, err := m.Generate()
	require.NoError(t, err)
	require.NoError(t, m.Store(ctx, "user-1", token))
	require.NoError(t, m.Revoke(ctx, token))

	_, ok, err := m.Verify(ctx, token)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRevoke_Idempotent(t *testing.T) {
	ctx := context.Background()
	m := NewManager(memory.NewSecretStore(), time.Hour)

	require.NoError(t, m.Revoke(ctx, "never-existed"))

	token, err := m.Generate()
	require.NoError(t, err)
	other, err := m.Generate()
	require.NoError(t, err)
	require.NoError(t, m.Store(ctx, "user-1", token))
	require.NoError(t, m.Store(ctx, "user-2", other))

	require.NoError(t, m.Revoke(ctx, token))
	require.NoError(t, m.Revoke(ctx, token))

	// Unrelated token is untouched.
	userID, ok, err := m.Verify(ctx, other)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "user-2", userID)
}

func TestRevokeAllForUser_Cascade(t *testing.T) {
	ctx := context.Background()
	m := NewManager(memory.NewSecretStore(), time.Hour)

	var aliceTokens []string
	for i := 0; i < 3; i++ {
		token, err := m.Generate()
		require.NoError(t, err)
		require.NoError(t, m.Store(ctx, "alice", token))
		aliceTokens = append(aliceTokens, token)
	}
	bobToken, err := m.Generate()
	require.NoError(t, err)
	require.NoError(t, m.Store(ctx, "bob", bobToken))

	require.NoError(t, m.RevokeAllForUser(ctx, "alice"))

	for _, token := range aliceTokens {
		_, ok, err := m.Verify(ctx, token)
		require.NoError(t, err)
		assert.False(t, ok)
	}
	userID, ok, err := m.Verify(ctx, bobToken)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "bob", userID)

	// No tokens left for alice is a no-op.
	require.NoError(t, m.RevokeAllForUser(ctx, "alice"))
	require.NoError(t, m.RevokeAllForUser(ctx, "nobody"))
}

func TestSweep_RemovesExpiredIncludingRevoked(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSecretStore()

	expired := NewManager(store, -time.Hour)
	deadToken, err := expired.Generate()
	require.NoError(t, err)
	require.NoError(t, expired.Store(ctx, "user-1", deadToken))

	live := NewManager(store, time.Hour)
	liveToken, err := live.Generate()
	require.NoError(t, err)
	require.NoError(t, live.Store(ctx, "user-1", liveToken))

	removed, err := live.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, ok, err := live.Verify(ctx, liveToken)
	require.NoError(t, err)
	assert.True(t, ok)
}
