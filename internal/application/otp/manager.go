package otp

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/notespace-api/internal/domain"
	"github.com/notespace-api/internal/pkg/keylock"
	"github.com/notespace-api/internal/secret"
)

// Manager issues and verifies one-time login codes. Codes are single-use,
// bound to a lowercase email, and capped at a fixed number of verification
// attempts.
type Manager struct {
	store       secret.Store
	locks       *keylock.KeyLock
	ttl         time.Duration
	maxAttempts int
}

func NewManager(store secret.Store, ttl time.Duration, maxAttempts int) *Manager {
	return &Manager{
		store:       store,
		locks:       keylock.New(),
		ttl:         ttl,
		maxAttempts: maxAttempts,
	}
}

// GenerateCode draws a 6-digit code uniformly from [100000, 999999] using
// the system CSPRNG.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// Issue creates a fresh challenge for email, overwriting any prior one, and
// returns the code. The caller is responsible for delivery.
func (m *Manager) Issue(ctx context.Context, email string) (string, error) {
	email = Normalize(email)
	code, err := GenerateCode()
	if err != nil {
		return "", err
	}
	expiresAt := time.Now().Add(m.ttl)
	challenge := domain.OTPChallenge{
		Email:     email,
		Code:      code,
		ExpiresAt: expiresAt.Unix(),
		Attempts:  0,
	}
	b, err := json.Marshal(challenge)
	if err != nil {
		return "", fmt.Errorf("marshal challenge: %w", err)
	}

	m.locks.Lock(email)
	defer m.locks.Unlock(email)
	if err := m.store.Put(ctx, email, b, expiresAt); err != nil {
		return "", err
	}
	return code, nil
}

// Verify checks a submitted code against the live challenge for email.
//
// The attempt counter is incremented and persisted before the code is
// compared, so the attempt limit caps total guesses regardless of whether the
// final guess is correct. A matching code deletes the challenge (single-use).
// The whole sequence is serialized per email, so two concurrent submissions
// of the correct code cannot both succeed.
func (m *Manager) Verify(ctx context.Context, email, submitted string) (bool, error) {
	email = Normalize(email)

	m.locks.Lock(email)
	defer m.locks.Unlock(email)

	rec, ok, err := m.store.Get(ctx, email)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	var challenge domain.OTPChallenge
	if err := json.Unmarshal(rec.Value, &challenge); err != nil {
		return false, fmt.Errorf("unmarshal challenge: %w", err)
	}

	now := time.Now()
	if challenge.ExpiresAt < now.Unix() {
		if err := m.store.Delete(ctx, email); err != nil {
			return false, err
		}
		slog.Info("rejected expired login code", "email", email)
		return false, nil
	}
	if challenge.Attempts >= m.maxAttempts {
		if err := m.store.Delete(ctx, email); err != nil {
			return false, err
		}
		slog.Warn("login code attempts exhausted", "email", email)
		return false, nil
	}

	challenge.Attempts++
	b, err := json.Marshal(challenge)
	if err != nil {
		return false, fmt.Errorf("marshal challenge: %w", err)
	}
	if err := m.store.Put(ctx, email, b, rec.ExpiresAt); err != nil {
		return false, err
	}

	if challenge.Code != submitted {
		slog.Info("rejected wrong login code", "email", email, "attempts", challenge.Attempts)
		return false, nil
	}

	// Single-use: the challenge is gone before success is reported.
	if err := m.store.Delete(ctx, email); err != nil {
		return false, err
	}
	return true, nil
}

// Sweep deletes expired challenges. Hygiene only; Verify rejects expired
// records on its own.
func (m *Manager) Sweep(ctx context.Context) (int, error) {
	return m.store.SweepExpired(ctx, time.Now())
}

// Normalize lowercases and trims an email so challenges issued and verified
// with different casing address the same record.
func Normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
