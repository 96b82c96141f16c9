package otp

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/notespace-api/internal/infrastructure/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, ttl time.Duration) *Manager {
	t.Helper()
	return NewManager(memory.NewSecretStore(), ttl, 5)
}

func TestGenerateCode_Format(t *testing.T) {
	sixDigits := regexp.MustCompile(`^[1-9][0-9]{5}$`)
	for i := 0; i < 50; i++ {
		code, err := GenerateCode()
		require.NoError(t, err)
		assert.Regexp(t, sixDigits, code)
	}
}

func TestGenerateCode_MostlyDistinct(t *testing.T) {
	// Birthday-bound sanity check over the 900k code space.
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		code, err := GenerateCode()
		require.NoError(t, err)
		seen[code] = struct{}{}
	}
	assert.GreaterOrEqual(t, len(seen), 96)
}

func TestVerify_SingleUse(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, 10*time.Minute)

	code, err := m.Issue(ctx, "u@x.com")
	require.NoError(t, err)

	ok, err := m.Verify(ctx, "u@x.com", code)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.Verify(ctx, "u@x.com", code)
	require.NoError(t, err)
	assert.False(t, ok, "a used code must never verify again")
}

func TestVerify_WrongCodeKeepsChallenge(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, 10*time.Minute)

	code, err := m.Issue(ctx, "u@x.com")
	require.NoError(t, err)

	ok, err := m.Verify(ctx, "u@x.com", "000000")
	require.NoError(t, err)
	assert.False(t, ok)

	// Still verifiable after a failed guess.
	ok, err = m.Verify(ctx, "u@x.com", code)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerify_AttemptCap(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, 10*time.Minute)

	code, err := m.Issue(ctx, "u@x.com")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		ok, err := m.Verify(ctx, "u@x.com", "000000")
		require.NoError(t, err)
		assert.False(t, ok)
	}

	// Sixth attempt fails even with the correct code: the counter is
	// persisted before the comparison.
	ok, err := m.Verify(ctx, "u@x.com", code)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerify_FifthAttemptCorrectSucceeds(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, 10*time.Minute)

	code, err := m.Issue(ctx, "u@x.com")
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		ok, err := m.Verify(ctx, "u@x.com", "000000")
		require.NoError(t, err)
		assert.False(t, ok)
	}
	ok, err := m.Verify(ctx, "u@x.com", code)
	require.NoError(t, err)
	assert.True(t, ok, "the fifth attempt must still be usable")
}

func TestVerify_Expired(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, -time.Minute)

	code, err := m.Issue(ctx, "u@x.com")
	require.NoError(t, err)

	ok, err := m.Verify(ctx, "u@x.com", code)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerify_AbsentChallenge(t *testing.T) {
	m := newTestManager(t, 10*time.Minute)
	ok, err := m.Verify(context.Background(), "nobody@x.com", "123456")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerify_CaseInsensitiveEmail(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, 10*time.Minute)

	code, err := m.Issue(ctx, "A@B.com")
	require.NoError(t, err)

	ok, err := m.Verify(ctx, "a@b.com", code)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIssue_OverwritesPriorChallenge(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, 10*time.Minute)

	first, err := m.Issue(ctx, "u@x.com")
	require.NoError(t, err)
	second, err := m.Issue(ctx, "u@x.com")
	require.NoError(t, err)

	if first != second {
		ok, err := m.Verify(ctx, "u@x.com", first)
		require.NoError(t, err)
		assert.False(t, ok, "a superseded code must not verify")
	}
	ok, err := m.Verify(ctx, "u@x.com", second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerify_ConcurrentAtMostOneSuccess(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, 10*time.Minute)

	code, err := m.Issue(ctx, "u@x.com")
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := m.Verify(ctx, "u@x.com", code)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, successes)
}

func TestSweep_RemovesExpired(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSecretStore()

	expired := NewManager(store, -time.Minute, 5)
	_, err := expired.Issue(ctx, "old@x.com")
	require.NoError(t, err)

	live := NewManager(store, 10*time.Minute, 5)
	code, err := live.Issue(ctx, "new@x.com")
	require.NoError(t, err)

	removed, err := live.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	ok, err := live.Verify(ctx, "new@x.com", code)
	require.NoError(t, err)
	assert.True(t, ok)
}
