package refresh

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/notespace-api/internal/domain"
	"github.com/notespace-api/internal/secret"
)

// Manager issues, verifies, and revokes long-lived opaque refresh tokens.
// Unlike login codes, a token stays valid across repeated Verify calls until
// it is rotated, revoked, or expires.
type Manager struct {
	store secret.Store
	ttl   time.Duration
}

func NewManager(store secret.Store, ttl time.Duration) *Manager {
	return &Manager{store: store, ttl: ttl}
}

// Generate returns 32 bytes of CSPRNG output, base64url-encoded. Uniqueness
// is probabilistic; no server-side collision check is performed.
func (m *Manager) Generate() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Store persists a token for userID with the configured lifetime.
func (m *Manager) Store(ctx context.Context, userID, token string) error {
	expiresAt := time.Now().Add(m.ttl)
	rec := domain.RefreshToken{
		Token:     token,
		UserID:    userID,
		ExpiresAt: expiresAt.Unix(),
		Revoked:   false,
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal refresh token: %w", err)
	}
	return m.store.Put(ctx, token, b, expiresAt)
}

// Verify returns the owning user ID when token is live. Verification does not
// consume the token. Expired records are deleted on sight; revoked records
// are kept so token reuse after rotation stays visible in logs.
func (m *Manager) Verify(ctx context.Context, token string) (string, bool, error) {
	rec, ok, err := m.store.Get(ctx, token)
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, nil
	}
	var rt domain.RefreshToken
	if err := json.Unmarshal(rec.Value, &rt); err != nil {
		return "", false, fmt.Errorf("unmarshal refresh token: %w", err)
	}
	if rt.Revoked {
		slog.Warn("revoked refresh token presented", "user_id", rt.UserID)
		return "", false, nil
	}
	if rt.ExpiresAt < time.Now().Unix() {
		if err := m.store.Delete(ctx, token); err != nil {
			return "", false, err
		}
		return "", false, nil
	}
	return rt.UserID, true, nil
}

// Revoke invalidates a token. Idempotent: revoking an absent or
// already-revoked token is a no-op.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	rec, ok, err := m.store.Get(ctx, token)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	var rt domain.RefreshToken
	if err := json.Unmarshal(rec.Value, &rt); err != nil {
		return fmt.Errorf("unmarshal refresh token: %w", err)
	}
	if rt.Revoked {
		return nil
	}
	rt.Revoked = true
	b, err := json.Marshal(rt)
	if err != nil {
		return fmt.Errorf("marshal refresh token: %w", err)
	}
	return m.store.Put(ctx, token, b, rec.ExpiresAt)
}

// RevokeAllForUser invalidates every token owned by userID. Used for
// "log out everywhere". No-op when the user holds no tokens.
func (m *Manager) RevokeAllForUser(ctx context.Context, userID string) error {
	records, err := m.store.List(ctx)
	if err != nil {
		return err
	}
	var firstErr error
	for _, rec := range records {
		var rt domain.RefreshToken
		if err := json.Unmarshal(rec.Value, &rt); err != nil {
			continue
		}
		if rt.UserID != userID || rt.Revoked {
			continue
		}
		if err := m.Revoke(ctx, rt.Token); err != nil {
			slog.Warn("failed to revoke token during revoke-all", "user_id", userID, "err", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Sweep deletes expired token records, revoked or not.
func (m *Manager) Sweep(ctx context.Context) (int, error) {
	return m.store.SweepExpired(ctx, time.Now())
}
